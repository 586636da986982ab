package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/kinderslides/kinderslides/internal/model"
)

// Pool is the subset of *pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS resolutions (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	item         TEXT NOT NULL,
	hint         TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	query        TEXT NOT NULL DEFAULT '',
	profile      TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL DEFAULT '',
	vision_calls INTEGER NOT NULL DEFAULT 0,
	candidates   INTEGER NOT NULL DEFAULT 0,
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_resolutions_created_at ON resolutions(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_resolutions_status ON resolutions(status);
CREATE INDEX IF NOT EXISTS idx_resolutions_item ON resolutions(lower(item));
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) RecordResolution(ctx context.Context, r model.Resolution) error {
	r = normalize(r, uuid.NewString, time.Now)

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO resolutions (id, item, hint, status, query, profile, source_url, vision_calls, candidates, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.Item, r.Hint, string(r.Status), r.Query, r.Profile, r.SourceURL,
		r.VisionCalls, r.Candidates, r.DurationMS, r.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert resolution %s", r.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("resolution not written: %s", r.ID)
	}
	return nil
}

func (s *PostgresStore) ListResolutions(ctx context.Context, filter Filter) ([]model.Resolution, error) {
	query := `SELECT id, item, hint, status, query, profile, source_url, vision_calls, candidates, duration_ms, created_at
		FROM resolutions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Item != "" {
		args = append(args, filter.Item)
		query += fmt.Sprintf(` AND lower(item) = lower($%d)`, len(args))
	}
	args = append(args, listLimit(filter))
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list resolutions")
	}
	defer rows.Close()

	var out []model.Resolution
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan resolution")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list resolutions iterate")
}

func (s *PostgresStore) StatusCounts(ctx context.Context, since time.Time) (map[model.ResultStatus]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM resolutions WHERE created_at >= $1 GROUP BY status`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: status counts")
	}
	defer rows.Close()

	counts := make(map[model.ResultStatus]int)
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		counts[model.ResultStatus(status)] = int(n)
	}
	return counts, eris.Wrap(rows.Err(), "postgres: status counts iterate")
}
