package httpfetch

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"FeedForge/internal/config"
	"FeedForge/internal/domain"
	"FeedForge/internal/fetch"
)

// PaginatedFetcher walks URL-based pagination by following next-page
// links.
//
// Full mode follows next links until they run out or maxPages stops a
// runaway walk. Incremental mode fetches page 1 and keeps following only
// while a page contributed no link already present in the cache, so a
// burst of posts spanning several pages since the last run is still
// caught.
type PaginatedFetcher struct {
	client *http.Client
	logger *slog.Logger
}

var _ fetch.Fetcher = (*PaginatedFetcher)(nil)

// NewPaginatedFetcher wires an HTTP client; a 30s-timeout client is used
// when nil is given.
func NewPaginatedFetcher(client *http.Client, logger *slog.Logger) *PaginatedFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &PaginatedFetcher{client: client, logger: logger}
}

// Mode identifies the strategy inside the registry.
func (f *PaginatedFetcher) Mode() string {
	return config.ModePaginated
}

// Fetch returns one FetchResult per visited page.
func (f *PaginatedFetcher) Fetch(ctx context.Context, req fetch.Request) ([]domain.FetchResult, error) {
	src := req.Source
	pageURL := src.URL

	var results []domain.FetchResult
	for page := 1; ; page++ {
		html, err := get(ctx, f.client, pageURL)
		if err != nil {
			// Pages already gathered are still usable.
			if len(results) > 0 {
				f.warn("page fetch failed, keeping earlier pages", "source", src.Name, "url", pageURL, "error", err)
				return results, nil
			}
			return nil, err
		}

		info, err := inspectPage(html, src)
		if err != nil {
			return nil, &domain.FetchError{URL: pageURL, Err: err}
		}

		results = append(results, domain.FetchResult{
			HTML:      html,
			NextURL:   info.nextURL,
			ItemCount: info.itemCount,
		})
		f.debug("fetched page", "source", src.Name, "page", page, "items", info.itemCount, "next", info.nextURL)

		if info.nextURL == "" {
			return results, nil
		}
		if !req.Full && overlaps(info.links, req.KnownURLs) {
			f.debug("reached cached content, stopping incremental walk", "source", src.Name, "page", page)
			return results, nil
		}
		if page >= src.MaxPages {
			results[len(results)-1].LimitHit = true
			f.warn("stopping at page ceiling", "source", src.Name, "pages", page, "reason", domain.ErrPaginationLimit)
			return results, nil
		}

		pageURL = info.nextURL
	}
}

type pageInfo struct {
	nextURL   string
	itemCount int
	links     []string
}

// inspectPage counts post containers, collects their resolved links, and
// extracts the next-page link if the source configures one.
func inspectPage(html string, src config.SourceConfig) (pageInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return pageInfo{}, err
	}

	base, err := url.Parse(src.BaseURL)
	if err != nil {
		return pageInfo{}, err
	}

	var info pageInfo
	linkSel := src.Selectors.Link
	if linkSel == "" {
		linkSel = "a"
	}

	items := doc.Find(src.Selectors.Item)
	info.itemCount = items.Length()
	items.Each(func(_ int, item *goquery.Selection) {
		href, ok := item.Find(linkSel).First().Attr("href")
		if !ok || href == "" {
			return
		}
		if resolved := resolveURL(base, href); resolved != "" {
			info.links = append(info.links, resolved)
		}
	})

	if src.Selectors.NextPage != "" {
		if href, ok := doc.Find(src.Selectors.NextPage).First().Attr("href"); ok && href != "" {
			info.nextURL = resolveURL(base, href)
		}
	}

	return info, nil
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func overlaps(links []string, known map[string]struct{}) bool {
	if len(known) == 0 {
		return false
	}
	for _, link := range links {
		if _, ok := known[link]; ok {
			return true
		}
	}
	return false
}

func (f *PaginatedFetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func (f *PaginatedFetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
