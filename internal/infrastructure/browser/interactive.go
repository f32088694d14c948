// Package browser implements the interactive fetch strategy: a headless
// Chrome session driven through repeated load-more clicks until the page
// stops growing or a safety ceiling is reached.
package browser

import (
	"context"
	"log/slog"
	"time"

	"FeedForge/internal/config"
	"FeedForge/internal/domain"
	"FeedForge/internal/fetch"
)

// Incremental runs only need the head of the listing; a couple of clicks
// cover several runs' worth of new posts.
const incrementalClicks = 2

const defaultRenderWait = 2 * time.Second

// InteractiveFetcher launches a browser session per fetch and tears it
// down on every exit path.
type InteractiveFetcher struct {
	logger *slog.Logger
	wait   time.Duration

	// newSession is swappable in tests.
	newSession func(ctx context.Context, cfg config.SourceConfig) (session, func(), error)
}

var _ fetch.Fetcher = (*InteractiveFetcher)(nil)

// NewInteractiveFetcher builds the chromedp-backed fetcher.
func NewInteractiveFetcher(logger *slog.Logger) *InteractiveFetcher {
	return &InteractiveFetcher{
		logger: logger,
		wait:   defaultRenderWait,
		newSession: func(ctx context.Context, cfg config.SourceConfig) (session, func(), error) {
			return newChromeSession(ctx, cfg)
		},
	}
}

// Mode identifies the strategy inside the registry.
func (f *InteractiveFetcher) Mode() string {
	return config.ModeInteractive
}

// Fetch drives the click loop and returns the final rendered markup as
// the sole payload.
func (f *InteractiveFetcher) Fetch(ctx context.Context, req fetch.Request) ([]domain.FetchResult, error) {
	sess, release, err := f.newSession(ctx, req.Source)
	if err != nil {
		return nil, &domain.FetchError{URL: req.Source.URL, Err: err}
	}
	defer release()

	maxClicks := req.Source.MaxClicks
	if !req.Full && maxClicks > incrementalClicks {
		maxClicks = incrementalClicks
	}

	loop := &clickLoop{
		sess:      sess,
		maxClicks: maxClicks,
		wait:      f.wait,
		logger:    f.logger,
	}

	result, err := loop.run(ctx, req.Source.URL)
	if err != nil {
		return nil, err
	}

	if f.logger != nil {
		f.logger.Debug("interactive fetch done",
			"source", req.Source.Name, "items", result.ItemCount, "limit_hit", result.LimitHit)
	}
	return []domain.FetchResult{result}, nil
}
