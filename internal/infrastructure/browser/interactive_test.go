package browser

import (
	"context"
	"testing"

	"FeedForge/internal/config"
	"FeedForge/internal/fetch"
)

func newFakeFetcher(sess *fakeSession) (*InteractiveFetcher, *bool) {
	released := false
	f := &InteractiveFetcher{
		newSession: func(context.Context, config.SourceConfig) (session, func(), error) {
			return sess, func() { released = true }, nil
		},
	}
	return f, &released
}

func interactiveSource() config.SourceConfig {
	return config.SourceConfig{
		Name:      "blog",
		URL:       "https://blog.test/news",
		Mode:      config.ModeInteractive,
		MaxClicks: 20,
		Selectors: config.SelectorConfig{Item: "div.card"},
	}
}

func TestInteractiveIncrementalCapsClicks(t *testing.T) {
	t.Parallel()

	// Endless growth: only the click budget stops the loop, and an
	// incremental run budgets far fewer clicks than a full walk.
	sess := &fakeSession{count: 10, grow: func(clicks int) int { return 10 + clicks }}
	f, released := newFakeFetcher(sess)

	results, err := f.Fetch(context.Background(), fetch.Request{Source: interactiveSource()})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if sess.clicks != incrementalClicks {
		t.Fatalf("expected %d clicks on an incremental run, got %d", incrementalClicks, sess.clicks)
	}
	if len(results) != 1 {
		t.Fatalf("expected a single payload, got %d", len(results))
	}
	if !*released {
		t.Fatal("session was not released")
	}
}

func TestInteractiveFullUsesConfiguredBudget(t *testing.T) {
	t.Parallel()

	sess := &fakeSession{count: 10, grow: func(clicks int) int { return 10 + clicks }}
	f, _ := newFakeFetcher(sess)

	results, err := f.Fetch(context.Background(), fetch.Request{Source: interactiveSource(), Full: true})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if sess.clicks != 20 {
		t.Fatalf("expected the full 20-click budget, got %d", sess.clicks)
	}
	if !results[0].LimitHit {
		t.Fatal("expected LimitHit when the budget runs out")
	}
}
