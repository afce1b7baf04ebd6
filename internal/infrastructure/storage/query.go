package storage

import (
	"strings"

	"github.com/samber/lo"

	"FeedScanner/internal/domain"
)

const (
	// DefaultPageLimit is used when a query does not specify a limit.
	DefaultPageLimit = 20
	// MaxPageLimit caps the page size accepted from callers.
	MaxPageLimit = 100
)

func normalizeQuery(q domain.ContentQuery) domain.ContentQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}

	tags := lo.Map(q.Tags, func(tag string, _ int) string {
		return strings.ToLower(strings.TrimSpace(tag))
	})
	q.Tags = lo.Uniq(lo.Compact(tags))

	return q
}
