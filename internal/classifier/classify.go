package classifier

import "FeedScanner/internal/domain"

// Result bundles every classification of a single item.
type Result struct {
	Summary     string
	Tags        []string
	ReadingTime int
	Difficulty  domain.Difficulty
}

// Classify runs all classifiers. Reading time only looks at the body,
// difficulty looks at title and body.
func Classify(title, body string, seed []string) Result {
	return Result{
		Summary:     Summarize(body),
		Tags:        ExtractTags(title, body, seed),
		ReadingTime: EstimateReadingTime(StripMarkup(body)),
		Difficulty:  DetermineDifficulty(title + " " + body),
	}
}
