// Package usecase orchestrates the per-source pipeline: load cache,
// fetch, extract, merge, persist, emit.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"FeedForge/internal/config"
	"FeedForge/internal/domain"
	"FeedForge/internal/fetch"
	"FeedForge/internal/infrastructure/extract"
	"FeedForge/internal/merge"
	"FeedForge/internal/ports"
)

// RunnerDeps wires all adapters into the coordinator.
type RunnerDeps struct {
	Registry   *fetch.Registry
	Extractor  *extract.Extractor
	Cache      ports.CacheStore
	Archive    ports.Archive
	FeedWriter ports.FeedWriter
	Logger     *slog.Logger
	// Concurrency bounds the worker pool across sources. Interactive
	// sources additionally share a single browser slot regardless of this
	// limit: headless Chrome is memory-heavy.
	Concurrency int
}

// Runner sequences the pipeline for each configured source, isolating
// failures so one broken source never affects its siblings.
type Runner struct {
	registry    *fetch.Registry
	extractor   *extract.Extractor
	cache       ports.CacheStore
	archive     ports.Archive
	feedWriter  ports.FeedWriter
	logger      *slog.Logger
	concurrency int
	browserSlot chan struct{}
	now         func() time.Time
}

// NewRunner constructs the coordinator.
func NewRunner(deps RunnerDeps) *Runner {
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		registry:    deps.Registry,
		extractor:   deps.Extractor,
		cache:       deps.Cache,
		archive:     deps.Archive,
		feedWriter:  deps.FeedWriter,
		logger:      deps.Logger,
		concurrency: concurrency,
		browserSlot: make(chan struct{}, 1),
		now:         time.Now,
	}
}

// Summary aggregates the outcomes of one run across sources.
type Summary struct {
	Outcomes []domain.RunOutcome
}

// Failed counts sources whose run errored.
func (s Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// AllFailed reports whether every source errored. The process exit code
// goes non-zero only in that case; partial failures stay visible in the
// summary without failing the run.
func (s Summary) AllFailed() bool {
	return len(s.Outcomes) > 0 && s.Failed() == len(s.Outcomes)
}

// RunAll processes each source through a bounded worker pool. Sources
// share no mutable state; outcomes land at their source's index.
func (r *Runner) RunAll(ctx context.Context, sources []config.SourceConfig, full bool) Summary {
	outcomes := make([]domain.RunOutcome, len(sources))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(i int, src config.SourceConfig) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if src.Mode == config.ModeInteractive {
				r.browserSlot <- struct{}{}
				defer func() { <-r.browserSlot }()
			}

			outcomes[i] = r.RunSource(ctx, src, full)
		}(i, src)
	}
	wg.Wait()

	return Summary{Outcomes: outcomes}
}

// RunSource executes the pipeline for one source. Any failure before the
// cache persist leaves the on-disk snapshot exactly as it was.
func (r *Runner) RunSource(ctx context.Context, src config.SourceConfig, full bool) (outcome domain.RunOutcome) {
	outcome = domain.RunOutcome{Source: src.Name, StartedAt: r.now().UTC()}
	defer func() {
		outcome.FinishedAt = r.now().UTC()
		r.record(ctx, outcome)
	}()

	fail := func(err error) domain.RunOutcome {
		r.error("source run failed", "source", src.Name, "error", err)
		outcome.Err = err
		return outcome
	}

	if err := src.Validate(); err != nil {
		return fail(err)
	}

	cached, err := r.cache.Load(src.Name)
	if err != nil {
		var corrupt *domain.CacheCorruptionError
		if !errors.As(err, &corrupt) {
			return fail(err)
		}
		// Cold start instead of crashing the run.
		r.warn("cache unreadable, starting cold", "source", src.Name, "error", err)
		cached = domain.SourceCache{}
	}

	fetcher, err := r.registry.Resolve(src.Mode)
	if err != nil {
		return fail(err)
	}

	// A cold cache forces a full walk regardless of the requested mode.
	req := fetch.Request{
		Source:    src,
		Full:      full || len(cached.Posts) == 0,
		KnownURLs: knownURLs(cached.Posts),
	}

	results, err := fetcher.Fetch(ctx, req)
	if err != nil {
		return fail(fmt.Errorf("fetch: %w", err))
	}

	var fresh []domain.Post
	for _, result := range results {
		extracted, err := r.extractor.Posts(src, result.HTML)
		if err != nil {
			return fail(fmt.Errorf("extract: %w", err))
		}
		fresh = append(fresh, extracted.Posts...)
		outcome.Skipped += extracted.Skipped
		outcome.LimitHit = outcome.LimitHit || result.LimitHit
	}

	merged := merge.Merge(cached.Posts, fresh)
	outcome.Posts = merged.Posts
	outcome.Added = merged.Added

	if err := r.cache.Save(src.Name, domain.SourceCache{Posts: merged.Posts}); err != nil {
		return fail(fmt.Errorf("persist cache: %w", err))
	}

	if err := r.feedWriter.Write(src, merged.Posts); err != nil {
		return fail(fmt.Errorf("write feed: %w", err))
	}

	r.info("source run complete", "source", src.Name,
		"posts", len(merged.Posts), "added", merged.Added, "skipped", outcome.Skipped, "limit_hit", outcome.LimitHit)
	return outcome
}

// record archives the outcome; archive trouble is logged, never fatal.
func (r *Runner) record(ctx context.Context, outcome domain.RunOutcome) {
	if r.archive == nil {
		return
	}
	if !outcome.Failed() && len(outcome.Posts) > 0 {
		if err := r.archive.SavePosts(ctx, outcome.Source, outcome.Posts); err != nil {
			r.warn("archive posts failed", "source", outcome.Source, "error", err)
		}
	}
	if err := r.archive.RecordRun(ctx, outcome); err != nil {
		r.warn("archive run record failed", "source", outcome.Source, "error", err)
	}
}

func knownURLs(posts []domain.Post) map[string]struct{} {
	known := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		known[p.URL] = struct{}{}
	}
	return known
}

func (r *Runner) info(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Runner) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Runner) error(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Error(msg, args...)
	}
}
