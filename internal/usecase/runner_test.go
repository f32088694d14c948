package usecase

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeedForge/internal/cache"
	"FeedForge/internal/config"
	"FeedForge/internal/domain"
	"FeedForge/internal/fetch"
	"FeedForge/internal/infrastructure/extract"
)

// stubFetcher serves canned payloads (or a canned error) for one mode.
type stubFetcher struct {
	mode    string
	results []domain.FetchResult
	err     error

	mu       sync.Mutex
	requests []fetch.Request
}

func (s *stubFetcher) Mode() string { return s.mode }

func (s *stubFetcher) Fetch(_ context.Context, req fetch.Request) ([]domain.FetchResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

// memFeedWriter records what would have been rendered.
type memFeedWriter struct {
	mu     sync.Mutex
	writes map[string][]domain.Post
	err    error
}

func newMemFeedWriter() *memFeedWriter {
	return &memFeedWriter{writes: map[string][]domain.Post{}}
}

func (w *memFeedWriter) Write(src config.SourceConfig, posts []domain.Post) error {
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes[src.Name] = posts
	return nil
}

func listingHTML(slugs ...string) string {
	html := "<html><body>"
	for _, slug := range slugs {
		html += `<div class="card"><h3 class="headline">` + slug + `</h3><a href="/posts/` + slug + `">x</a></div>`
	}
	return html + "</body></html>"
}

func testSource(name string) config.SourceConfig {
	return config.SourceConfig{
		Name:    name,
		URL:     "https://" + name + ".test/news",
		BaseURL: "https://" + name + ".test",
		Mode:    config.ModeDirect,
		Selectors: config.SelectorConfig{
			Item:  "div.card",
			Title: []string{"h3.headline"},
		},
		MaxPages:  50,
		MaxClicks: 20,
	}
}

func newTestRunner(t *testing.T, fetchers ...fetch.Fetcher) (*Runner, *cache.Store, *memFeedWriter) {
	t.Helper()

	registry := fetch.NewRegistry()
	for _, f := range fetchers {
		registry.Register(f)
	}

	store := cache.NewStore(t.TempDir(), nil)
	writer := newMemFeedWriter()
	runner := NewRunner(RunnerDeps{
		Registry:    registry,
		Extractor:   extract.New(nil),
		Cache:       store,
		FeedWriter:  writer,
		Concurrency: 2,
	})
	return runner, store, writer
}

func TestRunSourcePipeline(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{
		mode:    config.ModeDirect,
		results: []domain.FetchResult{{HTML: listingHTML("alpha", "beta")}},
	}
	runner, store, writer := newTestRunner(t, fetcher)

	outcome := runner.RunSource(context.Background(), testSource("blog"), false)

	require.NoError(t, outcome.Err)
	assert.Len(t, outcome.Posts, 2)
	assert.Equal(t, 2, outcome.Added)

	cached, err := store.Load("blog")
	require.NoError(t, err)
	assert.Len(t, cached.Posts, 2)

	assert.Len(t, writer.writes["blog"], 2)
}

func TestRunSourceColdCacheForcesFullWalk(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{
		mode:    config.ModeDirect,
		results: []domain.FetchResult{{HTML: listingHTML("alpha")}},
	}
	runner, _, _ := newTestRunner(t, fetcher)

	runner.RunSource(context.Background(), testSource("blog"), false)

	require.Len(t, fetcher.requests, 1)
	assert.True(t, fetcher.requests[0].Full, "empty cache should force a full walk")
}

func TestRunSourceIncrementalKeepsCachedTail(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{
		mode:    config.ModeDirect,
		results: []domain.FetchResult{{HTML: listingHTML("gamma", "alpha")}},
	}
	runner, store, _ := newTestRunner(t, fetcher)
	src := testSource("blog")

	require.NoError(t, store.Save("blog", domain.SourceCache{Posts: []domain.Post{
		{Title: "alpha", URL: "https://blog.test/posts/alpha"},
		{Title: "beta", URL: "https://blog.test/posts/beta"},
	}}))

	outcome := runner.RunSource(context.Background(), src, false)

	require.NoError(t, outcome.Err)
	assert.Len(t, outcome.Posts, 3)
	assert.Equal(t, 1, outcome.Added)

	require.Len(t, fetcher.requests, 1)
	assert.False(t, fetcher.requests[0].Full)
	assert.Contains(t, fetcher.requests[0].KnownURLs, "https://blog.test/posts/beta")
}

func TestRunSourceFailureLeavesCacheUntouched(t *testing.T) {
	t.Parallel()

	// The fetch succeeds; extraction fails on an unparsable base URL, so
	// the failure is injected after fetch but before persist.
	fetcher := &stubFetcher{
		mode:    config.ModeDirect,
		results: []domain.FetchResult{{HTML: listingHTML("fresh")}},
	}
	runner, store, writer := newTestRunner(t, fetcher)

	require.NoError(t, store.Save("blog", domain.SourceCache{Posts: []domain.Post{
		{Title: "old", URL: "https://blog.test/posts/old"},
	}}))
	before, err := os.ReadFile(store.Path("blog"))
	require.NoError(t, err)

	src := testSource("blog")
	src.BaseURL = "://not-a-url"

	outcome := runner.RunSource(context.Background(), src, false)
	require.Error(t, outcome.Err)

	after, err := os.ReadFile(store.Path("blog"))
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed run must leave the cache byte-identical")
	assert.Empty(t, writer.writes)
}

func TestRunSourceCorruptCacheStartsCold(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{
		mode:    config.ModeDirect,
		results: []domain.FetchResult{{HTML: listingHTML("alpha")}},
	}
	runner, store, _ := newTestRunner(t, fetcher)

	require.NoError(t, os.WriteFile(store.Path("blog"), []byte("{broken"), 0o644))

	outcome := runner.RunSource(context.Background(), testSource("blog"), false)

	require.NoError(t, outcome.Err)
	assert.Len(t, outcome.Posts, 1)

	cached, err := store.Load("blog")
	require.NoError(t, err)
	assert.Len(t, cached.Posts, 1)
}

func TestRunAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	okFetcher := &stubFetcher{
		mode:    config.ModeDirect,
		results: []domain.FetchResult{{HTML: listingHTML("alpha")}},
	}
	badFetcher := &stubFetcher{
		mode: config.ModePaginated,
		err:  &domain.FetchError{URL: "https://bad.test", Status: 500},
	}
	runner, _, writer := newTestRunner(t, okFetcher, badFetcher)

	good := testSource("good")
	bad := testSource("bad")
	bad.Mode = config.ModePaginated

	summary := runner.RunAll(context.Background(), []config.SourceConfig{good, bad}, false)

	require.Len(t, summary.Outcomes, 2)
	assert.NoError(t, summary.Outcomes[0].Err)
	assert.Error(t, summary.Outcomes[1].Err)
	assert.Equal(t, 1, summary.Failed())
	assert.False(t, summary.AllFailed())

	// The healthy source still produced its feed.
	assert.Len(t, writer.writes["good"], 1)
}

func TestRunAllAllFailed(t *testing.T) {
	t.Parallel()

	badFetcher := &stubFetcher{
		mode: config.ModeDirect,
		err:  errors.New("boom"),
	}
	runner, _, _ := newTestRunner(t, badFetcher)

	summary := runner.RunAll(context.Background(), []config.SourceConfig{
		testSource("one"), testSource("two"),
	}, false)

	assert.True(t, summary.AllFailed())
}

func TestRunSourceUnknownModeFails(t *testing.T) {
	t.Parallel()

	runner, _, _ := newTestRunner(t)
	src := testSource("blog")
	src.Mode = "telepathy"

	outcome := runner.RunSource(context.Background(), src, false)
	require.Error(t, outcome.Err)
}

func TestRunSourceReportsLimitHit(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{
		mode: config.ModeDirect,
		results: []domain.FetchResult{
			{HTML: listingHTML("alpha"), LimitHit: true},
		},
	}
	runner, _, _ := newTestRunner(t, fetcher)

	outcome := runner.RunSource(context.Background(), testSource("blog"), false)

	require.NoError(t, outcome.Err)
	assert.True(t, outcome.LimitHit)
}
