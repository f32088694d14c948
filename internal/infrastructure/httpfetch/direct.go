// Package httpfetch implements the direct and URL-paginated fetch
// strategies over plain HTTP.
package httpfetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"FeedForge/internal/config"
	"FeedForge/internal/domain"
	"FeedForge/internal/fetch"
)

// Listing pages behind bot filters reject obvious non-browser agents, so
// requests carry a realistic desktop UA.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DirectFetcher retrieves a single listing page with one GET. No internal
// retry: retry policy belongs to the run coordinator.
type DirectFetcher struct {
	client *http.Client
	logger *slog.Logger
}

var _ fetch.Fetcher = (*DirectFetcher)(nil)

// NewDirectFetcher wires an HTTP client; a 30s-timeout client is used when
// nil is given.
func NewDirectFetcher(client *http.Client, logger *slog.Logger) *DirectFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &DirectFetcher{client: client, logger: logger}
}

// Mode identifies the strategy inside the registry.
func (f *DirectFetcher) Mode() string {
	return config.ModeDirect
}

// Fetch returns the source's listing page as a single payload.
func (f *DirectFetcher) Fetch(ctx context.Context, req fetch.Request) ([]domain.FetchResult, error) {
	html, err := get(ctx, f.client, req.Source.URL)
	if err != nil {
		return nil, err
	}
	if f.logger != nil {
		f.logger.Debug("fetched page", "source", req.Source.Name, "url", req.Source.URL, "bytes", len(html))
	}
	return []domain.FetchResult{{HTML: html}}, nil
}

func get(ctx context.Context, client *http.Client, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &domain.FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", &domain.FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.FetchError{URL: pageURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.FetchError{URL: pageURL, Err: err}
	}
	return string(body), nil
}
