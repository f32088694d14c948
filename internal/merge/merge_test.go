package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeedForge/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func urls(posts []domain.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.URL
	}
	return out
}

func TestMergeIncrementalScenario(t *testing.T) {
	t.Parallel()

	cached := []domain.Post{
		{Title: "A", URL: "https://blog.test/a", PublishedAt: day(1)},
		{Title: "B", URL: "https://blog.test/b", PublishedAt: day(2)},
	}
	fresh := []domain.Post{
		{Title: "C", URL: "https://blog.test/c", PublishedAt: day(3)},
		{Title: "A", URL: "https://blog.test/a", PublishedAt: day(1)},
	}

	res := Merge(cached, fresh)

	require.Len(t, res.Posts, 3)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, []string{
		"https://blog.test/c",
		"https://blog.test/b",
		"https://blog.test/a",
	}, urls(res.Posts))
}

func TestMergeIdempotent(t *testing.T) {
	t.Parallel()

	cached := []domain.Post{
		{Title: "A", URL: "https://blog.test/a", PublishedAt: day(1)},
		{Title: "B", URL: "https://blog.test/b", PublishedAt: day(2)},
	}

	once := Merge(cached, cached)
	twice := Merge(once.Posts, cached)

	assert.Equal(t, 0, once.Added)
	assert.Equal(t, once.Posts, twice.Posts)

	seen := map[string]bool{}
	for _, p := range twice.Posts {
		require.False(t, seen[p.URL], "duplicate url %s", p.URL)
		seen[p.URL] = true
	}
}

func TestMergeNeverRegressesKnownDate(t *testing.T) {
	t.Parallel()

	cached := []domain.Post{{Title: "A", URL: "https://blog.test/a", PublishedAt: day(5)}}
	fresh := []domain.Post{{Title: "A", URL: "https://blog.test/a"}} // unknown date

	res := Merge(cached, fresh)

	require.Len(t, res.Posts, 1)
	assert.True(t, res.Posts[0].PublishedAt.Equal(day(5)))
}

func TestMergeFillsUnknownDate(t *testing.T) {
	t.Parallel()

	cached := []domain.Post{{Title: "A", URL: "https://blog.test/a"}}
	fresh := []domain.Post{{Title: "A", URL: "https://blog.test/a", PublishedAt: day(5)}}

	res := Merge(cached, fresh)

	require.Len(t, res.Posts, 1)
	assert.True(t, res.Posts[0].PublishedAt.Equal(day(5)))
	assert.Equal(t, 1, res.Updated)
}

func TestMergePrefersNonEmptySummary(t *testing.T) {
	t.Parallel()

	cached := []domain.Post{
		{Title: "A", URL: "https://blog.test/a", Summary: "old words"},
		{Title: "B", URL: "https://blog.test/b"},
	}
	fresh := []domain.Post{
		{Title: "A", URL: "https://blog.test/a", Summary: "new words"},
		{Title: "B", URL: "https://blog.test/b"},
	}

	res := Merge(cached, fresh)

	byURL := map[string]domain.Post{}
	for _, p := range res.Posts {
		byURL[p.URL] = p
	}
	// Tie between two non-empty summaries goes to the fresh extraction.
	assert.Equal(t, "new words", byURL["https://blog.test/a"].Summary)
	assert.Empty(t, byURL["https://blog.test/b"].Summary)
}

func TestSortDeterministicWithUnknownLast(t *testing.T) {
	t.Parallel()

	posts := []domain.Post{
		{Title: "no date z", URL: "https://blog.test/z"},
		{Title: "old", URL: "https://blog.test/old", PublishedAt: day(1)},
		{Title: "no date a", URL: "https://blog.test/a"},
		{Title: "new", URL: "https://blog.test/new", PublishedAt: day(9)},
		{Title: "same day b", URL: "https://blog.test/b", PublishedAt: day(9)},
	}

	want := []string{
		"https://blog.test/b",
		"https://blog.test/new",
		"https://blog.test/old",
		"https://blog.test/a",
		"https://blog.test/z",
	}

	for range 5 {
		shuffled := append([]domain.Post{}, posts...)
		Sort(shuffled)
		assert.Equal(t, want, urls(shuffled))
	}
}
