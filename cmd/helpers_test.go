package main

import (
	"context"
	"sync"

	"github.com/kinderslides/kinderslides/internal/model"
)

// fakeResolver returns canned results keyed by item name.
type fakeResolver struct {
	mu      sync.Mutex
	results map[string]model.Result
	calls   []model.Item
}

func (f *fakeResolver) Resolve(_ context.Context, item model.Item) model.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, item)
	if res, ok := f.results[item.Name]; ok {
		return res
	}
	return model.Unavailable()
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func imageResult(status model.ResultStatus) model.Result {
	return model.Result{
		Status:      status,
		Image:       pngMagic,
		MediaType:   "image/png",
		Query:       "query",
		Profile:     "education-illustration",
		SourceURL:   "https://cdn.pixabay.com/photo/x.png",
		VisionCalls: 1,
	}
}
