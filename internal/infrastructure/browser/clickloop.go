package browser

import (
	"context"
	"log/slog"
	"time"

	"FeedForge/internal/domain"
)

// session is the minimal browser surface the click loop drives. The
// chromedp implementation lives in session.go; tests substitute a fake.
type session interface {
	Navigate(ctx context.Context, url string) error
	ContainerCount(ctx context.Context) (int, error)
	// ClickLoadMore clicks the load-more control and reports whether a
	// visible, enabled control was found.
	ClickLoadMore(ctx context.Context) (bool, error)
	HTML(ctx context.Context) (string, error)
}

// clickLoop repeatedly triggers the load-more control until the control
// disappears, the container count stops growing, or the click ceiling is
// reached. The ceiling bounds worst-case runtime on sites with
// effectively infinite scroll or a stuck control.
type clickLoop struct {
	sess      session
	maxClicks int
	wait      time.Duration
	logger    *slog.Logger
}

// The count must stay frozen for this many consecutive waits before the
// loop concludes the site has nothing more to load. A single frozen
// observation is retried once: some sites render late.
const noGrowthStrikes = 2

func (l *clickLoop) run(ctx context.Context, pageURL string) (domain.FetchResult, error) {
	if err := l.sess.Navigate(ctx, pageURL); err != nil {
		return domain.FetchResult{}, &domain.FetchError{URL: pageURL, Err: err}
	}

	count, err := l.sess.ContainerCount(ctx)
	if err != nil {
		return domain.FetchResult{}, &domain.FetchError{URL: pageURL, Err: err}
	}

	clicks := 0
	frozen := 0
	limitHit := false

	for {
		if clicks >= l.maxClicks {
			limitHit = true
			l.log(slog.LevelWarn, "stopping at click ceiling", "clicks", clicks, "reason", domain.ErrPaginationLimit)
			break
		}

		clicked, err := l.sess.ClickLoadMore(ctx)
		if err != nil {
			return domain.FetchResult{}, &domain.FetchError{URL: pageURL, Err: err}
		}
		if !clicked {
			l.log(slog.LevelDebug, "load-more control gone", "clicks", clicks)
			break
		}
		clicks++

		if err := sleep(ctx, l.wait); err != nil {
			return domain.FetchResult{}, &domain.FetchError{URL: pageURL, Err: err}
		}

		grown, err := l.sess.ContainerCount(ctx)
		if err != nil {
			return domain.FetchResult{}, &domain.FetchError{URL: pageURL, Err: err}
		}
		if grown > count {
			count = grown
			frozen = 0
			continue
		}

		frozen++
		l.log(slog.LevelDebug, "no container growth after wait", "count", count, "strike", frozen)
		if frozen >= noGrowthStrikes {
			break
		}
	}

	html, err := l.sess.HTML(ctx)
	if err != nil {
		return domain.FetchResult{}, &domain.FetchError{URL: pageURL, Err: err}
	}

	return domain.FetchResult{HTML: html, ItemCount: count, LimitHit: limitHit}, nil
}

func (l *clickLoop) log(level slog.Level, msg string, args ...any) {
	if l.logger != nil {
		l.logger.Log(context.Background(), level, msg, args...)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
