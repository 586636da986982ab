// Package resolve turns an item into a single image by walking query
// variants and provider profiles, validating candidates by tags and then by
// the vision check, and degrading to a fallback or an explicit "no image".
package resolve

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kinderslides/kinderslides/internal/metrics"
	"github.com/kinderslides/kinderslides/internal/model"
	"github.com/kinderslides/kinderslides/internal/provider"
	"github.com/kinderslides/kinderslides/internal/query"
	"github.com/kinderslides/kinderslides/internal/relevance"
	"github.com/kinderslides/kinderslides/internal/vision"
)

// ImageSource searches for candidates and downloads them. Both calls are
// soft: failures come back as empty results.
type ImageSource interface {
	Search(ctx context.Context, query string, profile model.Profile) []model.Candidate
	Fetch(ctx context.Context, url string) ([]byte, string, bool)
}

// Confirmer is the semantic image check.
type Confirmer interface {
	Assess(ctx context.Context, image []byte, mediaType, label string) vision.Assessment
}

// Recorder receives a report of every finished resolution.
type Recorder interface {
	RecordResolution(ctx context.Context, r model.Resolution) error
}

// Resolver resolves items to images. It is safe for concurrent use when
// its source, confirmer and recorder are.
type Resolver struct {
	source   ImageSource
	vision   Confirmer
	profiles []model.Profile
	budget   int
	recorder Recorder

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProfiles replaces the default provider profiles.
func WithProfiles(p []model.Profile) Option {
	return func(r *Resolver) {
		if len(p) > 0 {
			r.profiles = p
		}
	}
}

// WithVisionBudget overrides vision.MaxCallsPerItem.
func WithVisionBudget(n int) Option {
	return func(r *Resolver) {
		if n >= 0 {
			r.budget = n
		}
	}
}

// WithRecorder attaches a history recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) {
		r.recorder = rec
	}
}

// New creates a Resolver. A nil confirmer accepts every image unverified.
func New(source ImageSource, confirmer Confirmer, opts ...Option) *Resolver {
	r := &Resolver{
		source:   source,
		vision:   confirmer,
		profiles: provider.Profiles(),
		budget:   vision.MaxCallsPerItem,
		nowFunc:  time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// accumulator is the per-resolution search state.
type accumulator struct {
	fallback       *model.Result
	visionCalls    int
	candidatesSeen int
}

// settle is the result once the search space is exhausted.
func (a accumulator) settle() model.Result {
	if a.fallback == nil {
		res := model.Unavailable()
		res.VisionCalls = a.visionCalls
		return res
	}
	res := *a.fallback
	res.Status = model.ResultFallback
	res.VisionCalls = a.visionCalls
	return res
}

// Resolve finds the best image for item. It never fails: when nothing
// usable is found the result status is model.ResultUnavailable.
func (r *Resolver) Resolve(ctx context.Context, item model.Item) model.Result {
	start := r.nowFunc()
	log := zap.L().With(zap.String("item", item.Name))

	res, acc := r.search(ctx, item, accumulator{})
	elapsed := r.nowFunc().Sub(start)

	log.Info("resolve: finished",
		zap.String("status", string(res.Status)),
		zap.String("query", res.Query),
		zap.String("profile", res.Profile),
		zap.Int("vision_calls", acc.visionCalls),
		zap.Int("candidates", acc.candidatesSeen),
		zap.Duration("elapsed", elapsed),
	)
	metrics.RecordResolution(string(res.Status), elapsed)
	r.record(ctx, item, res, acc, start, elapsed)

	return res
}

func (r *Resolver) search(ctx context.Context, item model.Item, acc accumulator) (model.Result, accumulator) {
	label := item.MainWord()
	words := item.SignificantWords()

	for _, q := range query.Expand(item) {
		for _, p := range r.profiles {
			if ctx.Err() != nil {
				zap.L().Debug("resolve: context done, settling", zap.String("item", item.Name), zap.Error(ctx.Err()))
				return acc.settle(), acc
			}
			for _, c := range r.source.Search(ctx, q, p) {
				acc.candidatesSeen++
				res, next, done := r.tryCandidate(ctx, c, q, p, label, words, item.Name, acc)
				acc = next
				if done {
					return res, acc
				}
			}
		}
	}
	return acc.settle(), acc
}

// tryCandidate runs the tag check, fetch and vision check on one candidate.
// done is true when res is final.
func (r *Resolver) tryCandidate(
	ctx context.Context,
	c model.Candidate,
	q string,
	p model.Profile,
	label string,
	words []string,
	itemName string,
	acc accumulator,
) (res model.Result, next accumulator, done bool) {
	log := zap.L().With(zap.String("item", itemName), zap.Int("candidate", c.ID))

	if !relevance.IsRelevant(c.Tags, words, itemName) {
		log.Debug("resolve: tags rejected", zap.String("tags", c.Tags))
		return model.Result{}, acc, false
	}

	data, mediaType, ok := r.source.Fetch(ctx, c.URL)
	if !ok {
		return model.Result{}, acc, false
	}

	hit := model.Result{
		Image:     data,
		MediaType: mediaType,
		Query:     q,
		Profile:   p.Name,
		SourceURL: c.URL,
	}
	if acc.fallback == nil {
		fb := hit
		acc.fallback = &fb
	}

	if acc.visionCalls >= r.budget {
		hit.Status = model.ResultUnverified
		hit.VisionCalls = acc.visionCalls
		log.Debug("resolve: vision budget spent, using tag-validated image")
		return hit, acc, true
	}

	check := vision.Assessment{Accept: true}
	if r.vision != nil {
		check = r.vision.Assess(ctx, data, mediaType, label)
	}
	if check.Called {
		acc.visionCalls++
	}
	if !check.Accept {
		log.Debug("resolve: vision rejected", zap.Int("vision_calls", acc.visionCalls))
		return model.Result{}, acc, false
	}

	hit.Status = model.ResultUnverified
	if check.Verified {
		hit.Status = model.ResultValidated
	}
	hit.VisionCalls = acc.visionCalls
	return hit, acc, true
}

func (r *Resolver) record(ctx context.Context, item model.Item, res model.Result, acc accumulator, start time.Time, elapsed time.Duration) {
	if r.recorder == nil {
		return
	}
	err := r.recorder.RecordResolution(ctx, model.Resolution{
		ID:          uuid.NewString(),
		Item:        item.Name,
		Hint:        item.Hint,
		Status:      res.Status,
		Query:       res.Query,
		Profile:     res.Profile,
		SourceURL:   res.SourceURL,
		VisionCalls: acc.visionCalls,
		Candidates:  acc.candidatesSeen,
		DurationMS:  elapsed.Milliseconds(),
		CreatedAt:   start.UTC(),
	})
	if err != nil {
		zap.L().Warn("resolve: failed to record resolution", zap.String("item", item.Name), zap.Error(err))
	}
}
