package fetch

import (
	"context"
	"testing"

	"FeedForge/internal/domain"
)

type nopFetcher struct{ mode string }

func (f nopFetcher) Mode() string { return f.mode }

func (f nopFetcher) Fetch(context.Context, Request) ([]domain.FetchResult, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(nopFetcher{mode: "direct"})
	registry.Register(nopFetcher{mode: "paginated"})

	f, err := registry.Resolve("paginated")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if f.Mode() != "paginated" {
		t.Fatalf("resolved wrong fetcher: %s", f.Mode())
	}

	if _, err := registry.Resolve("interactive"); err == nil {
		t.Fatal("expected error for unregistered mode")
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	first := &nopFetcher{mode: "direct"}
	second := &nopFetcher{mode: "direct"}
	registry.Register(first)
	registry.Register(second)

	f, err := registry.Resolve("direct")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if f != Fetcher(second) {
		t.Fatal("expected the later registration to win")
	}
}
