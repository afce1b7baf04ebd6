package domain

import (
	"errors"
	"time"
)

// EventNewContent is broadcast to subscribers for every freshly persisted item.
const EventNewContent = "newContent"

// UntitledPlaceholder replaces empty titles coming from upstream feeds.
const UntitledPlaceholder = "Untitled"

var (
	// ErrDuplicateLink is returned by repositories when the link is already stored.
	ErrDuplicateLink = errors.New("content with this link already exists")
	// ErrInvalidItem marks raw items that cannot become a ContentItem.
	ErrInvalidItem = errors.New("invalid raw item")
	// ErrCycleInProgress is returned when an ingestion cycle is already running.
	ErrCycleInProgress = errors.New("ingestion cycle already in progress")
)

// Difficulty enumerates reader levels assigned by the classifier.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// ContentItem is the canonical record persisted and distributed to subscribers.
// It is created once per link and never mutated afterwards.
type ContentItem struct {
	ID          int64      `json:"id,omitempty"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Summary     string     `json:"summary"`
	Tags        []string   `json:"tags"`
	ReadingTime int        `json:"readingTime"`
	Difficulty  Difficulty `json:"difficulty"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ContentQuery filters and paginates stored content.
type ContentQuery struct {
	// Tags matches items carrying any of the listed tags; empty means all.
	Tags  []string
	Page  int
	Limit int
}

// ContentPage is a single page of query results.
type ContentPage struct {
	Items []ContentItem
	Total int
	Page  int
	Limit int
}

// TotalPages returns the number of pages for the page's limit.
func (p ContentPage) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}
