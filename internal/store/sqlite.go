package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/kinderslides/kinderslides/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS resolutions (
	id           TEXT PRIMARY KEY,
	item         TEXT NOT NULL,
	hint         TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	query        TEXT NOT NULL DEFAULT '',
	profile      TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL DEFAULT '',
	vision_calls INTEGER NOT NULL DEFAULT 0,
	candidates   INTEGER NOT NULL DEFAULT 0,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_resolutions_created_at ON resolutions(created_at);
CREATE INDEX IF NOT EXISTS idx_resolutions_status ON resolutions(status);
CREATE INDEX IF NOT EXISTS idx_resolutions_item ON resolutions(item COLLATE NOCASE);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordResolution(ctx context.Context, r model.Resolution) error {
	r = normalize(r, uuid.NewString, time.Now)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO resolutions (id, item, hint, status, query, profile, source_url, vision_calls, candidates, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Item, r.Hint, string(r.Status), r.Query, r.Profile, r.SourceURL,
		r.VisionCalls, r.Candidates, r.DurationMS, r.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert resolution %s", r.ID)
	}
	return checkRowsAffected(res, "resolution", r.ID)
}

func (s *SQLiteStore) ListResolutions(ctx context.Context, filter Filter) ([]model.Resolution, error) {
	query := `SELECT id, item, hint, status, query, profile, source_url, vision_calls, candidates, duration_ms, created_at
		FROM resolutions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Item != "" {
		query += ` AND item = ? COLLATE NOCASE`
		args = append(args, filter.Item)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list resolutions")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Resolution
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan resolution")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list resolutions iterate")
}

func (s *SQLiteStore) StatusCounts(ctx context.Context, since time.Time) (map[model.ResultStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM resolutions WHERE created_at >= ? GROUP BY status`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: status counts")
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[model.ResultStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan status count")
		}
		counts[model.ResultStatus(status)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: status counts iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not written: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanResolution(row scannable) (model.Resolution, error) {
	var (
		r      model.Resolution
		status string
	)
	err := row.Scan(
		&r.ID, &r.Item, &r.Hint, &status, &r.Query, &r.Profile, &r.SourceURL,
		&r.VisionCalls, &r.Candidates, &r.DurationMS, &r.CreatedAt,
	)
	if err != nil {
		return model.Resolution{}, err
	}
	r.Status = model.ResultStatus(status)
	return r, nil
}
