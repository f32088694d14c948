// Package feedout encodes ordered post sequences into RSS documents, one
// file per source.
package feedout

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/natefinch/atomic"

	"FeedForge/internal/config"
	"FeedForge/internal/domain"
	"FeedForge/internal/ports"
)

// RSSWriter renders `<dir>/feed_<source>.xml`. Input is expected to be
// already deduplicated and ordered by the merge engine.
type RSSWriter struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.FeedWriter = (*RSSWriter)(nil)

// NewRSSWriter wires the output directory; it is created on first write.
func NewRSSWriter(dir string, logger *slog.Logger) *RSSWriter {
	return &RSSWriter{dir: dir, logger: logger, now: time.Now}
}

// Path returns the output feed location for a source.
func (w *RSSWriter) Path(source string) string {
	return filepath.Join(w.dir, "feed_"+source+".xml")
}

// Write renders and atomically replaces the feed file for a source.
func (w *RSSWriter) Write(src config.SourceConfig, posts []domain.Post) error {
	feed := &feeds.Feed{
		Title:       src.Feed.Title,
		Link:        &feeds.Link{Href: src.URL},
		Description: src.Feed.Description,
		Created:     w.now().UTC(),
	}
	if src.Feed.Author != "" {
		feed.Author = &feeds.Author{Name: src.Feed.Author, Email: src.Feed.Email}
	}

	for _, post := range posts {
		item := &feeds.Item{
			Title:       post.Title,
			Link:        &feeds.Link{Href: post.URL},
			Id:          post.URL,
			Description: itemDescription(post),
		}
		// Unknown dates are simply omitted from the entry.
		if post.HasDate() {
			item.Created = post.PublishedAt
		}
		feed.Items = append(feed.Items, item)
	}

	rss, err := feed.ToRss()
	if err != nil {
		return fmt.Errorf("render feed for %s: %w", src.Name, err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create feed dir: %w", err)
	}

	path := w.Path(src.Name)
	if err := atomic.WriteFile(path, strings.NewReader(rss)); err != nil {
		return fmt.Errorf("write feed %s: %w", path, err)
	}

	if w.logger != nil {
		w.logger.Info("wrote feed", "source", src.Name, "path", path, "entries", len(posts))
	}
	return nil
}

// itemDescription falls back to the title so readers never render an
// empty body.
func itemDescription(post domain.Post) string {
	if post.Summary != "" {
		return post.Summary
	}
	return post.Title
}
