// Package classifier derives tags, difficulty, reading time and a summary from
// raw feed text. Every function is pure and total.
package classifier

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"FeedScanner/internal/domain"
)

const (
	// WordsPerMinute is the reading speed used for reading time estimates.
	WordsPerMinute = 200
	// SummaryLength is the maximum number of characters kept in a summary.
	SummaryLength = 200
	// Ellipsis is appended to summaries cut at SummaryLength.
	Ellipsis = "..."
)

var markupExpr = regexp.MustCompile(`<[^>]*>`)

type keywordRule struct {
	tag      string
	keywords []string
}

// keywordTable is evaluated in order; the order defines tag output order.
var keywordTable = []keywordRule{
	{tag: "javascript", keywords: []string{"javascript", "js", "node", "react", "vue", "angular"}},
	{tag: "python", keywords: []string{"python", "django", "flask", "pandas"}},
	{tag: "webdev", keywords: []string{"web", "html", "css", "frontend", "backend"}},
	{tag: "design", keywords: []string{"design", "ui", "ux", "figma"}},
	{tag: "ai", keywords: []string{"ai", "machine learning", "ml", "artificial intelligence"}},
	{tag: "data", keywords: []string{"data", "analytics", "visualization"}},
	{tag: "cloud", keywords: []string{"cloud", "aws", "azure", "gcp"}},
	{tag: "mobile", keywords: []string{"mobile", "ios", "android", "react native"}},
}

var (
	beginnerMarkers = []string{"beginner", "introduction", "getting started", "basics"}
	advancedMarkers = []string{"advanced", "expert", "deep dive", "mastering"}
)

// EstimateReadingTime returns whole minutes at WordsPerMinute, never less than 1.
func EstimateReadingTime(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	return max(1, minutes)
}

// ExtractTags returns the seed tags followed by keyword-derived tags.
// Seeds keep their order, matched tags follow keywordTable order, duplicates are dropped.
func ExtractTags(title, body string, seed []string) []string {
	text := strings.ToLower(title + " " + body)

	tags := make([]string, 0, len(seed)+len(keywordTable))
	for _, tag := range seed {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	for _, rule := range keywordTable {
		if containsAny(text, rule.keywords) {
			tags = append(tags, rule.tag)
		}
	}

	return lo.Uniq(tags)
}

// DetermineDifficulty checks beginner markers before advanced ones.
func DetermineDifficulty(text string) domain.Difficulty {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, beginnerMarkers):
		return domain.DifficultyBeginner
	case containsAny(lower, advancedMarkers):
		return domain.DifficultyAdvanced
	default:
		return domain.DifficultyIntermediate
	}
}

// StripMarkup removes anything that looks like a tag and trims the result.
func StripMarkup(text string) string {
	return strings.TrimSpace(markupExpr.ReplaceAllString(text, ""))
}

// Summarize returns the first SummaryLength characters of the stripped text,
// followed by Ellipsis when the stripped text is at least that long.
func Summarize(text string) string {
	stripped := StripMarkup(text)
	if utf8.RuneCountInString(stripped) < SummaryLength {
		return stripped
	}

	runes := []rune(stripped)
	return string(runes[:SummaryLength]) + Ellipsis
}

func containsAny(text string, needles []string) bool {
	return lo.SomeBy(needles, func(needle string) bool {
		return strings.Contains(text, needle)
	})
}
