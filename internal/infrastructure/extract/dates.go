package extract

import (
	"regexp"
	"strings"
	"time"
)

// General-purpose formats tried after any source-specific ones. Covers
// the date renderings observed across blog platforms.
var generalDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006-01-02",
	"01/02/2006",
}

var dateExpr = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}`)

// parseDate tries the source formats first, then the general table. The
// zero time signals the unknown sentinel; a malformed date never fails
// the record.
func parseDate(text string, sourceFormats []string) (time.Time, bool) {
	text = normalizeSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, format := range sourceFormats {
		if t, err := time.Parse(format, text); err == nil {
			return ensureUTC(t), true
		}
	}
	for _, format := range generalDateFormats {
		if t, err := time.Parse(format, text); err == nil {
			return ensureUTC(t), true
		}
	}

	// The element may wrap the date in other text ("Posted on Jan 2, 2026").
	if match := dateExpr.FindString(text); match != "" && match != text {
		return parseDate(match, sourceFormats)
	}

	return time.Time{}, false
}

func ensureUTC(t time.Time) time.Time {
	if t.Location() == time.Local {
		return t.UTC()
	}
	return t.In(time.UTC)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
