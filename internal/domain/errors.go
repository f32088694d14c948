package domain

import (
	"errors"
	"fmt"
)

// ErrPaginationLimit signals that a pagination loop stopped at its safety
// ceiling rather than running out of content. It is a termination signal,
// not a failure: the content gathered so far is still returned.
var ErrPaginationLimit = errors.New("pagination safety ceiling reached")

// FetchError describes a failed content retrieval: network error,
// non-success HTTP status, or browser-session failure.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CacheCorruptionError marks an unreadable or malformed cache file. The
// caller recovers by treating the source as a cold start.
type CacheCorruptionError struct {
	Path string
	Err  error
}

func (e *CacheCorruptionError) Error() string {
	return fmt.Sprintf("cache file %s is corrupt: %v", e.Path, e.Err)
}

func (e *CacheCorruptionError) Unwrap() error {
	return e.Err
}
