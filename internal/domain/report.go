package domain

import "time"

// SourceError records a source that could not be fetched during a cycle.
type SourceError struct {
	Source string `json:"source"`
	URL    string `json:"url"`
	Err    string `json:"error"`
}

// ItemError records a single item that failed inside an otherwise healthy source.
type ItemError struct {
	Source string `json:"source"`
	Link   string `json:"link"`
	Err    string `json:"error"`
}

// CycleReport aggregates the outcome of one ingestion cycle.
type CycleReport struct {
	StartedAt    time.Time     `json:"startedAt"`
	FinishedAt   time.Time     `json:"finishedAt"`
	Sources      int           `json:"sources"`
	ItemsSeen    int           `json:"itemsSeen"`
	ItemsAdded   int           `json:"itemsAdded"`
	ItemsSkipped int           `json:"itemsSkipped"`
	SourceErrors []SourceError `json:"sourceErrors"`
	ItemErrors   []ItemError   `json:"itemErrors"`
}

// Duration reports how long the cycle took.
func (r CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
