// Package fetch defines the content-retrieval strategy contract and the
// registry mapping fetch modes to their implementations.
package fetch

import (
	"context"
	"fmt"

	"FeedForge/internal/config"
	"FeedForge/internal/domain"
)

// Request carries all parameters required to fetch one source.
type Request struct {
	Source config.SourceConfig
	// Full forces a complete re-walk of the source's pagination.
	Full bool
	// KnownURLs holds post links already present in the cache; incremental
	// pagination stops once a page overlaps with it.
	KnownURLs map[string]struct{}
}

// Fetcher captures a single retrieval strategy (direct, paginated,
// interactive).
type Fetcher interface {
	Mode() string
	Fetch(ctx context.Context, req Request) ([]domain.FetchResult, error)
}

// Registry keeps a mapping from fetch modes to their implementations.
type Registry struct {
	fetchers map[string]Fetcher
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: map[string]Fetcher{}}
}

// Register adds or replaces a fetcher implementation.
func (r *Registry) Register(f Fetcher) {
	if r.fetchers == nil {
		r.fetchers = map[string]Fetcher{}
	}
	r.fetchers[f.Mode()] = f
}

// Resolve returns a fetcher by mode or an error if it is absent.
func (r *Registry) Resolve(mode string) (Fetcher, error) {
	if f, ok := r.fetchers[mode]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("fetch mode %s is not registered", mode)
}
