package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kinderslides/kinderslides/internal/fetcher"
	"github.com/kinderslides/kinderslides/internal/provider"
	"github.com/kinderslides/kinderslides/internal/resolve"
	"github.com/kinderslides/kinderslides/internal/store"
	"github.com/kinderslides/kinderslides/internal/vision"
	anthropicpkg "github.com/kinderslides/kinderslides/pkg/anthropic"
	"github.com/kinderslides/kinderslides/pkg/pixabay"
)

// resolveEnv holds the initialized clients, the vision session and the
// resolver needed by the resolve/topic/serve commands.
type resolveEnv struct {
	Resolver *resolve.Resolver
	Session  *vision.Session
	Store    store.Store // nil when history is disabled
	Backend  string      // "" when vision checks are bypassed

	closers []func() error
}

// Close releases resources held by the environment.
func (e *resolveEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			zap.L().Warn("close resource", zap.Error(err))
		}
	}
}

// initResolver validates the config for mode, opens the history store and
// builds the resolver. Callers should defer env.Close().
func initResolver(ctx context.Context, mode string) (*resolveEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	env := &resolveEnv{Session: vision.NewSession()}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st != nil {
		env.Store = st
		env.closers = append(env.closers, st.Close)
	}

	pixabayOpts := []pixabay.Option{pixabay.WithTimeout(seconds(cfg.Pixabay.TimeoutSecs))}
	if cfg.Pixabay.BaseURL != "" {
		pixabayOpts = append(pixabayOpts, pixabay.WithBaseURL(cfg.Pixabay.BaseURL))
	}
	pixabayClient := pixabay.NewClient(cfg.Pixabay.Key, pixabayOpts...)

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   seconds(cfg.Fetch.TimeoutSecs),
		MaxBytes:  cfg.Fetch.MaxBytes,
	})
	source := provider.New(pixabayClient, httpFetcher)

	backend, closeBackend, err := initVisionBackend(ctx)
	if err != nil {
		env.Close()
		return nil, err
	}
	if closeBackend != nil {
		env.closers = append(env.closers, closeBackend)
	}

	var confirmer resolve.Confirmer
	if backend != nil {
		env.Backend = backend.Name()
		confirmer = vision.NewValidator(backend, env.Session,
			vision.WithTimeout(seconds(cfg.Vision.TimeoutSecs)))
		zap.L().Info("vision validation enabled", zap.String("backend", env.Backend))
	} else {
		zap.L().Info("vision validation disabled, tag validation only")
	}

	opts := []resolve.Option{}
	if env.Store != nil {
		opts = append(opts, resolve.WithRecorder(env.Store))
	}
	env.Resolver = resolve.New(source, confirmer, opts...)

	return env, nil
}

// initVisionBackend builds the configured vision backend. A nil backend
// means vision checks are bypassed.
func initVisionBackend(ctx context.Context) (vision.Backend, func() error, error) {
	anthropicKey := strings.TrimSpace(cfg.Anthropic.Key)
	geminiKey := strings.TrimSpace(cfg.Gemini.Key)

	name, err := vision.SelectProvider(cfg.Vision.Provider, anthropicKey != "", geminiKey != "")
	if err != nil {
		return nil, nil, err
	}

	switch name {
	case vision.ProviderAnthropic:
		client := anthropicpkg.NewClient(anthropicKey,
			anthropicpkg.WithTimeout(seconds(cfg.Vision.TimeoutSecs)))
		return vision.NewAnthropicBackend(client, cfg.Anthropic.VisionModel, cfg.Anthropic.MaxTokens), nil, nil
	case vision.ProviderGemini:
		b, err := vision.NewGeminiBackend(ctx, geminiKey, cfg.Gemini.Model)
		if err != nil {
			return nil, nil, eris.Wrap(err, "init gemini backend")
		}
		return b, b.Close, nil
	default:
		return nil, nil, nil
	}
}

// initStore opens and migrates the history store. It returns nil, nil
// when the driver is "none".
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if errors.Is(err, store.ErrDisabled) {
		zap.L().Debug("resolution history disabled")
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
