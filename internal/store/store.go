// Package store persists the history of image resolutions. History is an
// audit trail only; nothing reads it back to short-circuit a resolution.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/kinderslides/kinderslides/internal/model"
)

// ErrDisabled is returned by Open when the configured driver is "none".
var ErrDisabled = eris.New("store: history disabled")

// Filter specifies criteria for listing resolutions.
type Filter struct {
	Status model.ResultStatus `json:"status,omitempty"`
	Item   string             `json:"item,omitempty"`
	Limit  int                `json:"limit,omitempty"`
	Offset int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for resolution history.
type Store interface {
	RecordResolution(ctx context.Context, r model.Resolution) error
	ListResolutions(ctx context.Context, filter Filter) ([]model.Resolution, error)
	StatusCounts(ctx context.Context, since time.Time) (map[model.ResultStatus]int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

// Open creates the store for driver and runs its migration.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "none":
		return nil, ErrDisabled
	case "sqlite":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// normalize fills the generated fields of a record.
func normalize(r model.Resolution, id func() string, now func() time.Time) model.Resolution {
	if r.ID == "" {
		r.ID = id()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now()
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return r
}

func listLimit(f Filter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}
