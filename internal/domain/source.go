package domain

import (
	"time"

	"github.com/samber/lo"
)

// SourceKindRSS is the default fetch strategy (RSS, Atom and JSON feeds).
const SourceKindRSS = "rss"

// SourceDescriptor is an immutable entry of the source registry.
type SourceDescriptor struct {
	Name    string
	URL     string
	Kind    string
	Tags    []string
	Options map[string]string
}

// RawItem is whatever a fetcher could extract from a single feed entry.
type RawItem struct {
	Title string
	Link  string
	Body  string
	// Published is the raw date string as found in the feed.
	Published string
	// PublishedAt is set when the fetcher already parsed the date.
	PublishedAt *time.Time
}

// FirstNonEmpty returns the first non-empty value in priority order.
func FirstNonEmpty(values ...string) string {
	value, _ := lo.Coalesce(values...)
	return value
}
