// Package app wires configuration to adapters and the run coordinator.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"FeedForge/internal/cache"
	"FeedForge/internal/config"
	"FeedForge/internal/fetch"
	"FeedForge/internal/infrastructure/browser"
	"FeedForge/internal/infrastructure/extract"
	"FeedForge/internal/infrastructure/feedout"
	"FeedForge/internal/infrastructure/httpfetch"
	"FeedForge/internal/infrastructure/storage"
	"FeedForge/internal/logging"
	"FeedForge/internal/usecase"
)

// Application owns the wired pipeline and the archive handle.
type Application struct {
	cfg     config.Config
	runner  *usecase.Runner
	archive *storage.SQLiteArchive
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	archive, err := storage.Open(cfg.Archive.Path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	registry := fetch.NewRegistry()
	registry.Register(httpfetch.NewDirectFetcher(nil, logging.Component(baseLogger, "fetch.direct")))
	registry.Register(httpfetch.NewPaginatedFetcher(nil, logging.Component(baseLogger, "fetch.paginated")))
	registry.Register(browser.NewInteractiveFetcher(logging.Component(baseLogger, "fetch.interactive")))

	runner := usecase.NewRunner(usecase.RunnerDeps{
		Registry:    registry,
		Extractor:   extract.New(logging.Component(baseLogger, "extract")),
		Cache:       cache.NewStore(cfg.CacheDir, logging.Component(baseLogger, "cache")),
		Archive:     archive,
		FeedWriter:  feedout.NewRSSWriter(cfg.FeedDir, logging.Component(baseLogger, "feedout")),
		Logger:      logging.Component(baseLogger, "runner"),
		Concurrency: cfg.Runner.Concurrency,
	})

	return &Application{cfg: cfg, runner: runner, archive: archive}, nil
}

// Run executes one pass over the configured sources. When only is
// non-empty, just that source runs.
func (a *Application) Run(ctx context.Context, full bool, only string) (usecase.Summary, error) {
	sources := a.cfg.Sources
	if only != "" {
		src, ok := a.cfg.Source(only)
		if !ok {
			return usecase.Summary{}, fmt.Errorf("source %s is not configured", only)
		}
		sources = []config.SourceConfig{src}
	}
	if len(sources) == 0 {
		return usecase.Summary{}, fmt.Errorf("no sources configured")
	}

	if a.cfg.Runner.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Runner.Timeout.Duration)
		defer cancel()
	}

	return a.runner.RunAll(ctx, sources, full), nil
}

// RecentRuns exposes archived run history for the CLI.
func (a *Application) RecentRuns(ctx context.Context, source string, limit int) ([]storage.RunRecord, error) {
	return a.archive.RecentRuns(ctx, source, limit)
}

// Close releases held resources.
func (a *Application) Close() error {
	return a.archive.Close()
}
