// Package storage keeps a SQLite history of emitted posts and run
// outcomes.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"FeedForge/internal/domain"
	"FeedForge/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
    url          TEXT PRIMARY KEY,
    source       TEXT NOT NULL,
    title        TEXT NOT NULL,
    summary      TEXT NOT NULL DEFAULT '',
    category     TEXT NOT NULL DEFAULT '',
    published_at TEXT NOT NULL DEFAULT '',
    first_seen   TEXT NOT NULL,
    last_seen    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    source      TEXT NOT NULL,
    status      TEXT NOT NULL,
    posts_total INTEGER NOT NULL,
    posts_added INTEGER NOT NULL,
    limit_hit   INTEGER NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source, id);
`

// SQLiteArchive persists post and run history into an embedded database.
type SQLiteArchive struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.Archive = (*SQLiteArchive)(nil)

// RunRecord is one historical run row.
type RunRecord struct {
	ID         int64
	Source     string
	Status     string
	PostsTotal int
	PostsAdded int
	LimitHit   bool
	Reason     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Open creates or opens the archive database and applies the schema.
func Open(path string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply archive schema: %w", err)
	}
	return &SQLiteArchive{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}, nil
}

// Close releases the database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

// SavePosts upserts the emitted posts, keyed by url.
func (a *SQLiteArchive) SavePosts(ctx context.Context, source string, posts []domain.Post) error {
	now := time.Now().UTC().Format(time.RFC3339)

	for _, post := range posts {
		published := ""
		if post.HasDate() {
			published = post.PublishedAt.UTC().Format(time.RFC3339)
		}

		query, args, err := a.sb.
			Insert("posts").
			Columns("url", "source", "title", "summary", "category", "published_at", "first_seen", "last_seen").
			Values(post.URL, source, post.Title, post.Summary, post.Category, published, now, now).
			Suffix(`ON CONFLICT(url) DO UPDATE SET
				title = excluded.title,
				summary = excluded.summary,
				category = excluded.category,
				published_at = excluded.published_at,
				last_seen = excluded.last_seen`).
			ToSql()
		if err != nil {
			return fmt.Errorf("build post upsert: %w", err)
		}
		if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert post %s: %w", post.URL, err)
		}
	}
	return nil
}

// RecordRun appends one run outcome row, failed runs included.
func (a *SQLiteArchive) RecordRun(ctx context.Context, outcome domain.RunOutcome) error {
	status := "ok"
	if outcome.Failed() {
		status = "failed"
	}

	query, args, err := a.sb.
		Insert("runs").
		Columns("source", "status", "posts_total", "posts_added", "limit_hit", "reason", "started_at", "finished_at").
		Values(
			outcome.Source,
			status,
			len(outcome.Posts),
			outcome.Added,
			boolToInt(outcome.LimitHit),
			outcome.Reason(),
			outcome.StartedAt.UTC().Format(time.RFC3339),
			outcome.FinishedAt.UTC().Format(time.RFC3339),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("record run for %s: %w", outcome.Source, err)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first, optionally filtered
// by source.
func (a *SQLiteArchive) RecentRuns(ctx context.Context, source string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	builder := a.sb.
		Select("id", "source", "status", "posts_total", "posts_added", "limit_hit", "reason", "started_at", "finished_at").
		From("runs").
		OrderBy("id DESC").
		Limit(uint64(limit))
	if source != "" {
		builder = builder.Where(sq.Eq{"source": source})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var limitHit int
		var startedAt, finishedAt string
		if err := rows.Scan(&rec.ID, &rec.Source, &rec.Status, &rec.PostsTotal, &rec.PostsAdded,
			&limitHit, &rec.Reason, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		rec.LimitHit = limitHit != 0
		rec.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		rec.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
