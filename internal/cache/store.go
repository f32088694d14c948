// Package cache persists per-source post snapshots as JSON documents, one
// file per source.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"FeedForge/internal/domain"
	"FeedForge/internal/ports"
)

// Store reads and writes `<dir>/<source>_posts.json` files. A failed run
// must leave the prior snapshot untouched, so saves go through an atomic
// write-to-temp-then-rename.
type Store struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.CacheStore = (*Store)(nil)

// NewStore wires a cache directory; it is created on first save.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger, now: time.Now}
}

// Path returns the cache file location for a source.
func (s *Store) Path(source string) string {
	return filepath.Join(s.dir, source+"_posts.json")
}

// Load returns the cached snapshot for a source. A missing file is a cold
// start (empty cache, nil error). A malformed file yields a
// CacheCorruptionError so the caller can decide to start cold.
func (s *Store) Load(source string) (domain.SourceCache, error) {
	path := s.Path(source)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.debug("no cache file, cold start", "source", source, "path", path)
		return domain.SourceCache{}, nil
	}
	if err != nil {
		return domain.SourceCache{}, &domain.CacheCorruptionError{Path: path, Err: err}
	}

	var cached domain.SourceCache
	if err := json.Unmarshal(raw, &cached); err != nil {
		return domain.SourceCache{}, &domain.CacheCorruptionError{Path: path, Err: err}
	}

	s.debug("loaded cache", "source", source, "posts", len(cached.Posts))
	return cached, nil
}

// Save rewrites the snapshot for a source atomically and stamps
// last_updated.
func (s *Store) Save(source string, cached domain.SourceCache) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	cached.LastUpdated = s.now().UTC()
	if cached.Posts == nil {
		cached.Posts = []domain.Post{}
	}

	raw, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache for %s: %w", source, err)
	}

	path := s.Path(source)
	if err := atomic.WriteFile(path, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("write cache %s: %w", path, err)
	}

	s.debug("saved cache", "source", source, "posts", len(cached.Posts))
	return nil
}

func (s *Store) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
