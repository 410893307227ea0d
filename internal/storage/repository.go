package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Repository keeps per-timeline view preferences between runs.
type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS timeline_prefs (
  timeline TEXT PRIMARY KEY,
  threshold INTEGER NOT NULL,
  updated_at TEXT NOT NULL
);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CheckWritable fails when the database cannot accept writes. The probe
// row is rolled back.
func (r *Repository) CheckWritable(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO timeline_prefs (timeline, threshold, updated_at)
VALUES ('', 0, '')
ON CONFLICT(timeline) DO NOTHING
`); err != nil {
		return fmt.Errorf("probe write: %w", err)
	}
	return nil
}

func (r *Repository) SaveThreshold(ctx context.Context, timeline string, level int) error {
	if timeline == "" {
		return errors.New("save threshold: timeline is required")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO timeline_prefs (timeline, threshold, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(timeline) DO UPDATE SET
  threshold=excluded.threshold,
  updated_at=excluded.updated_at
`, timeline, level, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save threshold: %w", err)
	}
	return nil
}

// LoadThreshold returns the saved level, with ok false when none was saved.
func (r *Repository) LoadThreshold(ctx context.Context, timeline string) (int, bool, error) {
	var level int
	err := r.db.QueryRowContext(ctx, `SELECT threshold FROM timeline_prefs WHERE timeline = ?`, timeline).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load threshold: %w", err)
	}
	return level, true, nil
}

type TimelinePref struct {
	Timeline  string
	Threshold int
	UpdatedAt time.Time
}

func (r *Repository) ListPrefs(ctx context.Context) ([]TimelinePref, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT timeline, threshold, updated_at
FROM timeline_prefs
WHERE timeline <> ''
ORDER BY timeline
`)
	if err != nil {
		return nil, fmt.Errorf("query prefs: %w", err)
	}
	defer rows.Close()

	var prefs []TimelinePref
	for rows.Next() {
		var (
			p         TimelinePref
			updatedAt string
		)
		if err := rows.Scan(&p.Timeline, &p.Threshold, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan pref row: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		p.UpdatedAt = parsed
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pref rows: %w", err)
	}
	return prefs, nil
}
