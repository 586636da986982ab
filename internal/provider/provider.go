// Package provider adapts the Pixabay client and the byte fetcher into the
// soft-failure image source used by the resolver: every error is logged and
// turned into an empty result.
package provider

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kinderslides/kinderslides/internal/fetcher"
	"github.com/kinderslides/kinderslides/internal/metrics"
	"github.com/kinderslides/kinderslides/internal/model"
	"github.com/kinderslides/kinderslides/internal/resilience"
	"github.com/kinderslides/kinderslides/pkg/pixabay"
)

// Provider searches for image candidates and downloads them.
type Provider struct {
	client  pixabay.Client
	fetcher fetcher.Fetcher
}

// New creates a Provider.
func New(client pixabay.Client, f fetcher.Fetcher) *Provider {
	return &Provider{client: client, fetcher: f}
}

// Search runs one query under one profile. Zero hits and failures both
// yield an empty slice; candidates keep the provider's ranking.
func (p *Provider) Search(ctx context.Context, query string, profile model.Profile) []model.Candidate {
	log := zap.L().With(zap.String("query", query), zap.String("profile", profile.Name))

	resp, err := p.client.Search(ctx, pixabay.SearchParams{
		Query:      query,
		ImageType:  profile.ImageType,
		Category:   profile.Category,
		MinWidth:   profile.MinWidth,
		MinHeight:  profile.MinHeight,
		PerPage:    profile.PerPage,
		SafeSearch: profile.SafeSearch,
	})
	if err != nil {
		// Non-transient failures (bad key, bad parameters) repeat on every query.
		if resilience.IsTransient(err) {
			log.Warn("provider: search failed", zap.Error(err))
		} else {
			log.Error("provider: search rejected", zap.Error(err))
		}
		metrics.RecordSearch(profile.Name, metrics.SearchError)
		return nil
	}

	candidates := make([]model.Candidate, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		c, ok := toCandidate(h)
		if !ok {
			continue
		}
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		log.Debug("provider: no hits")
		metrics.RecordSearch(profile.Name, metrics.SearchEmpty)
		return nil
	}

	log.Debug("provider: search returned candidates", zap.Int("count", len(candidates)))
	metrics.RecordSearch(profile.Name, metrics.SearchHits)
	return candidates
}

// Fetch downloads a candidate image. It reports false when the download
// fails or the bytes are not a decodable image; the media type returned is
// the decoded format, not the server's claim.
func (p *Provider) Fetch(ctx context.Context, url string) ([]byte, string, bool) {
	resp, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		zap.L().Debug("provider: fetch failed", zap.String("url", url), zap.Error(err))
		metrics.RecordFetch(metrics.FetchError)
		return nil, "", false
	}

	mediaType, cfg, err := probeImage(resp.Body)
	if err != nil {
		zap.L().Debug("provider: fetched bytes are not an image",
			zap.String("url", url),
			zap.String("content_type", resp.ContentType),
			zap.Error(err),
		)
		metrics.RecordFetch(metrics.FetchNotImage)
		return nil, "", false
	}

	data, normalized, err := normalizeImage(resp.Body, mediaType)
	if err != nil {
		zap.L().Debug("provider: could not convert image",
			zap.String("url", url),
			zap.String("media_type", mediaType),
			zap.Error(err),
		)
		metrics.RecordFetch(metrics.FetchNotImage)
		return nil, "", false
	}
	mediaType = normalized

	zap.L().Debug("provider: fetched image",
		zap.String("url", url),
		zap.String("media_type", mediaType),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int("bytes", len(data)),
	)
	metrics.RecordFetch(metrics.FetchOK)
	return data, mediaType, true
}

func toCandidate(h pixabay.Hit) (model.Candidate, bool) {
	url := h.WebformatURL
	if url == "" {
		url = h.LargeImageURL
	}
	if url == "" {
		return model.Candidate{}, false
	}
	return model.Candidate{
		ID:         h.ID,
		URL:        url,
		PreviewURL: h.PreviewURL,
		Tags:       strings.TrimSpace(h.Tags),
		Width:      h.ImageWidth,
		Height:     h.ImageHeight,
	}, true
}
