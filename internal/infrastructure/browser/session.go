package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"FeedForge/internal/config"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Default selectors for the load-more control, tried after any
// source-configured ones. Matches the control variants seen across blog
// platforms.
var defaultLoadMoreSelectors = []string{
	"[class*='seeMore']",
	"[class*='see-more']",
	"[class*='load-more']",
	"button[class*='More']",
}

// chromeSession drives one headless Chrome tab. The returned release
// function tears down the tab and the browser process; callers must
// invoke it on every exit path.
type chromeSession struct {
	ctx context.Context
	cfg config.SourceConfig
}

// newChromeSession launches a headless browser configured to minimize
// automation signals.
func newChromeSession(ctx context.Context, cfg config.SourceConfig) (*chromeSession, func(), error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(browserUserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	release := func() {
		cancelTab()
		cancelAlloc()
	}

	return &chromeSession{ctx: tabCtx, cfg: cfg}, release, nil
}

// Navigate loads the page and waits for the first post container to
// appear. A missing container is not fatal here: the page may use a
// structure the extractor's fallbacks still understand.
func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := chromedp.Run(s.ctx, chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancel()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(s.cfg.Selectors.Item, chromedp.ByQuery)); err != nil {
		// Proceed anyway; ContainerCount will report zero if truly absent.
		return sleep(ctx, 2*time.Second)
	}
	return nil
}

// ContainerCount returns the number of rendered post containers.
func (s *chromeSession) ContainerCount(_ context.Context) (int, error) {
	expr := fmt.Sprintf("document.querySelectorAll(%s).length", jsString(s.cfg.Selectors.Item))
	var count int
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(expr, &count)); err != nil {
		return 0, err
	}
	return count, nil
}

// ClickLoadMore clicks the first visible, enabled load-more control and
// reports whether one was found.
func (s *chromeSession) ClickLoadMore(_ context.Context) (bool, error) {
	selectors := append([]string{}, s.cfg.Selectors.LoadMore...)
	selectors = append(selectors, defaultLoadMoreSelectors...)

	encoded, err := json.Marshal(selectors)
	if err != nil {
		return false, err
	}

	expr := fmt.Sprintf(`(() => {
		for (const sel of %s) {
			const el = document.querySelector(sel);
			if (el && !el.disabled && el.offsetParent !== null) {
				el.click();
				return true;
			}
		}
		return false;
	})()`, encoded)

	var clicked bool
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(expr, &clicked)); err != nil {
		return false, err
	}
	return clicked, nil
}

// HTML captures the fully rendered markup.
func (s *chromeSession) HTML(_ context.Context) (string, error) {
	var out string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &out, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return out, nil
}

func jsString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}
