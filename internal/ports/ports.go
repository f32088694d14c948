package ports

import (
	"context"

	"FeedForge/internal/config"
	"FeedForge/internal/domain"
)

// CacheStore loads and persists per-source post snapshots.
type CacheStore interface {
	Load(source string) (domain.SourceCache, error)
	Save(source string, cache domain.SourceCache) error
}

// Archive records emitted posts and run outcomes for history/audit.
type Archive interface {
	SavePosts(ctx context.Context, source string, posts []domain.Post) error
	RecordRun(ctx context.Context, outcome domain.RunOutcome) error
	Close() error
}

// FeedWriter encodes an ordered, deduplicated post sequence into the
// public syndication format for one source.
type FeedWriter interface {
	Write(src config.SourceConfig, posts []domain.Post) error
}
