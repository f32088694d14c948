package domain

import (
	"encoding/json"
	"time"
)

// UnknownDateMarker is written to the cache when a post date could not be
// parsed. Round-trips losslessly through load/save.
const UnknownDateMarker = "unknown"

// Post is one normalized article extracted from a source listing page.
// URL is the canonical absolute link and serves as the dedupe key.
type Post struct {
	Title       string
	URL         string
	PublishedAt time.Time
	Summary     string
	Category    string
}

// HasDate reports whether the post carries a real parsed date. The zero
// time is the "unknown" sentinel.
func (p Post) HasDate() bool {
	return !p.PublishedAt.IsZero()
}

type postJSON struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Summary     string `json:"summary,omitempty"`
	Category    string `json:"category,omitempty"`
}

// MarshalJSON encodes the date as RFC 3339 or the explicit unknown marker.
func (p Post) MarshalJSON() ([]byte, error) {
	out := postJSON{
		Title:    p.Title,
		URL:      p.URL,
		Summary:  p.Summary,
		Category: p.Category,
	}
	if p.HasDate() {
		out.PublishedAt = p.PublishedAt.UTC().Format(time.RFC3339)
	} else {
		out.PublishedAt = UnknownDateMarker
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts RFC 3339 dates, the unknown marker, or an empty
// string (treated as unknown).
func (p *Post) UnmarshalJSON(data []byte) error {
	var in postJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.Title = in.Title
	p.URL = in.URL
	p.Summary = in.Summary
	p.Category = in.Category
	p.PublishedAt = time.Time{}
	if in.PublishedAt != "" && in.PublishedAt != UnknownDateMarker {
		parsed, err := time.Parse(time.RFC3339, in.PublishedAt)
		if err != nil {
			return err
		}
		p.PublishedAt = parsed.UTC()
	}
	return nil
}

// SourceCache is the persisted prior-run state for one source.
type SourceCache struct {
	LastUpdated time.Time `json:"last_updated"`
	Posts       []Post    `json:"posts"`
}

// FetchResult is one page or batch of raw markup plus pagination metadata.
type FetchResult struct {
	HTML      string
	NextURL   string
	ItemCount int
	LimitHit  bool
}

// RunOutcome is the per-source result owned by the run coordinator.
type RunOutcome struct {
	Source     string
	Posts      []Post
	Added      int
	Skipped    int
	LimitHit   bool
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed reports whether the run ended in an error.
func (o RunOutcome) Failed() bool {
	return o.Err != nil
}

// Reason returns a machine-readable failure reason, empty on success.
func (o RunOutcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
