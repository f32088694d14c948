// Package extract parses raw listing markup into normalized post records
// using ordered per-field fallback strategies.
package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"FeedForge/internal/config"
	"FeedForge/internal/domain"
)

// fieldStrategy is one pure extraction attempt against a post container.
// Strategies are tried in order; the first non-empty value wins.
type fieldStrategy func(item *goquery.Selection) string

// Extractor turns one raw markup payload into post records. A single
// malformed container is skipped, never aborting the rest of the page.
type Extractor struct {
	logger *slog.Logger
}

// New builds an extractor.
func New(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Result carries the extracted records plus a count of containers that
// failed to yield required fields.
type Result struct {
	Posts   []domain.Post
	Skipped int
}

// Posts extracts all post records from one payload. Records are neither
// deduplicated nor merged here.
func (e *Extractor) Posts(src config.SourceConfig, html string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{}, fmt.Errorf("parse markup for %s: %w", src.Name, err)
	}

	base, err := url.Parse(src.BaseURL)
	if err != nil {
		return Result{}, fmt.Errorf("source %s: invalid base url: %w", src.Name, err)
	}

	titleChain := buildChain(src.Selectors.Title, builtinTitleStrategies)
	summaryChain := buildChain(src.Selectors.Summary, builtinSummaryStrategies)

	var out Result
	doc.Find(src.Selectors.Item).Each(func(_ int, item *goquery.Selection) {
		post, ok := e.post(src, base, item, titleChain, summaryChain)
		if !ok {
			out.Skipped++
			return
		}
		out.Posts = append(out.Posts, post)
	})

	if out.Skipped > 0 {
		e.warn("skipped containers with missing required fields",
			"source", src.Name, "skipped", out.Skipped, "extracted", len(out.Posts))
	}
	return out, nil
}

func (e *Extractor) post(
	src config.SourceConfig,
	base *url.URL,
	item *goquery.Selection,
	titleChain, summaryChain []fieldStrategy,
) (domain.Post, bool) {
	link := e.link(src, base, item)
	if link == "" {
		// Cannot be deduplicated or linked without a URL.
		return domain.Post{}, false
	}

	title := normalizeSpace(apply(titleChain, item))
	if title == "" {
		e.warn("container missing title", "source", src.Name, "url", link)
		return domain.Post{}, false
	}

	post := domain.Post{
		Title:    title,
		URL:      link,
		Summary:  normalizeSpace(apply(summaryChain, item)),
		Category: e.category(src, item),
	}
	post.PublishedAt = e.date(src, item)

	return post, true
}

func (e *Extractor) link(src config.SourceConfig, base *url.URL, item *goquery.Selection) string {
	sel := src.Selectors.Link
	if sel == "" {
		sel = "a"
	}
	href, ok := item.Find(sel).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		// The container itself may be the anchor.
		href, ok = item.Attr("href")
		if !ok {
			return ""
		}
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// date walks the configured date selectors, then the built-in ones, then
// falls back to scanning the container text for a date-looking string.
// The unknown sentinel (zero time) is returned rather than failing the
// record.
func (e *Extractor) date(src config.SourceConfig, item *goquery.Selection) time.Time {
	selectors := append([]string{}, src.Selectors.Date...)
	selectors = append(selectors, "time", "[class*='date']")

	for _, sel := range selectors {
		var found time.Time
		item.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if dt, ok := el.Attr("datetime"); ok {
				if t, parsed := parseDate(dt, src.DateFormats); parsed {
					found = t
					return false
				}
			}
			if t, parsed := parseDate(el.Text(), src.DateFormats); parsed {
				found = t
				return false
			}
			return true
		})
		if !found.IsZero() {
			return found
		}
	}

	if match := dateExpr.FindString(item.Text()); match != "" {
		if t, parsed := parseDate(match, src.DateFormats); parsed {
			return t
		}
	}

	return time.Time{}
}

// Category label variants seen across blog platforms, tried after any
// source-configured selectors.
var builtinCategorySelectors = []string{
	"span[class*='subject']",
	"span.caption.bold",
	"span.text-label",
	"p.detail-m",
	"span[class*='category']",
	"div[class*='category']",
}

// category walks the configured selectors, then the built-in ones, and
// returns the first non-empty text that does not read as a date. Listing
// cards often render the category and the date with the same class, so a
// date-looking candidate is skipped rather than taken.
func (e *Extractor) category(src config.SourceConfig, item *goquery.Selection) string {
	selectors := append([]string{}, src.Selectors.Category...)
	selectors = append(selectors, builtinCategorySelectors...)

	for _, sel := range selectors {
		var found string
		item.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := normalizeSpace(el.Text())
			if text == "" {
				return true
			}
			if _, isDate := parseDate(text, src.DateFormats); isDate {
				return true
			}
			found = text
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// buildChain turns configured selectors into strategies and appends the
// built-in fallbacks.
func buildChain(selectors []string, builtin []fieldStrategy) []fieldStrategy {
	chain := make([]fieldStrategy, 0, len(selectors)+len(builtin))
	for _, sel := range selectors {
		chain = append(chain, selectorText(sel))
	}
	return append(chain, builtin...)
}

func apply(chain []fieldStrategy, item *goquery.Selection) string {
	for _, strategy := range chain {
		if v := strategy(item); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// selectorText extracts the text of the first element matching sel.
func selectorText(sel string) fieldStrategy {
	return func(item *goquery.Selection) string {
		return item.Find(sel).First().Text()
	}
}

// attrValue extracts an attribute of the first element matching sel.
func attrValue(sel, attr string) fieldStrategy {
	return func(item *goquery.Selection) string {
		v, _ := item.Find(sel).First().Attr(attr)
		return v
	}
}

var builtinTitleStrategies = []fieldStrategy{
	selectorText("h2"),
	selectorText("h3"),
	selectorText("h4"),
	attrValue("a", "data-cta-copy"),
}

var builtinSummaryStrategies = []fieldStrategy{
	selectorText("p"),
}

func (e *Extractor) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
