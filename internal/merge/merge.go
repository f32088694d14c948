// Package merge combines freshly extracted posts with the cached snapshot
// of a source. It is pure: no I/O, deterministic output for identical
// inputs.
package merge

import (
	"sort"

	"FeedForge/internal/domain"
)

// Result summarizes what a merge changed.
type Result struct {
	Posts   []domain.Post
	Added   int
	Updated int
}

// Merge unions cached and fresh posts keyed by URL and returns the
// deterministically ordered result: published date descending, posts with
// unknown dates last, URL ascending as the tie-break.
//
// Field conflicts for a URL present on both sides resolve as follows: the
// fresh date is taken only when the cached one is the unknown sentinel, so
// a known date is never regressed; the non-empty summary wins, preferring
// the fresh extraction when both are non-empty; same rule for category.
// The cached title is kept unless it is empty.
func Merge(cached, fresh []domain.Post) Result {
	byURL := make(map[string]domain.Post, len(cached)+len(fresh))
	for _, p := range cached {
		if p.URL == "" {
			continue
		}
		byURL[p.URL] = p
	}

	var added, updated int
	for _, p := range fresh {
		if p.URL == "" {
			continue
		}
		existing, ok := byURL[p.URL]
		if !ok {
			byURL[p.URL] = p
			added++
			continue
		}
		resolved := resolve(existing, p)
		if resolved != existing {
			updated++
		}
		byURL[p.URL] = resolved
	}

	posts := make([]domain.Post, 0, len(byURL))
	for _, p := range byURL {
		posts = append(posts, p)
	}
	Sort(posts)

	return Result{Posts: posts, Added: added, Updated: updated}
}

// Sort orders posts in place: date descending, unknown dates last, URL
// ascending on equal dates.
func Sort(posts []domain.Post) {
	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch {
		case a.HasDate() && !b.HasDate():
			return true
		case !a.HasDate() && b.HasDate():
			return false
		case a.HasDate() && b.HasDate() && !a.PublishedAt.Equal(b.PublishedAt):
			return a.PublishedAt.After(b.PublishedAt)
		default:
			return a.URL < b.URL
		}
	})
}

func resolve(cached, fresh domain.Post) domain.Post {
	out := cached

	if out.Title == "" {
		out.Title = fresh.Title
	}

	// Never regress a known date to the unknown sentinel.
	if !out.HasDate() && fresh.HasDate() {
		out.PublishedAt = fresh.PublishedAt
	}

	if fresh.Summary != "" {
		out.Summary = fresh.Summary
	}
	if fresh.Category != "" {
		out.Category = fresh.Category
	}

	return out
}
