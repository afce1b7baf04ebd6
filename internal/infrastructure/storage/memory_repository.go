package storage

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/samber/lo"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/ports"
)

// MemoryRepository keeps content in process memory. The link index is guarded
// by a mutex so concurrent inserts of the same link resolve to one winner.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  []domain.ContentItem
	byLink map[string]int
}

var _ ports.ContentRepository = (*MemoryRepository)(nil)

// NewMemoryRepository builds an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byLink: map[string]int{}}
}

// FindByLink returns the stored item for link, if any.
func (r *MemoryRepository) FindByLink(_ context.Context, link string) (domain.ContentItem, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byLink[link]
	if !ok {
		return domain.ContentItem{}, false, nil
	}
	return cloneItem(r.items[idx]), true, nil
}

// Insert stores a new item. A conflicting link yields domain.ErrDuplicateLink.
func (r *MemoryRepository) Insert(ctx context.Context, item domain.ContentItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byLink[item.Link]; exists {
		return domain.ErrDuplicateLink
	}

	r.nextID++
	item = cloneItem(item)
	item.ID = r.nextID
	r.byLink[item.Link] = len(r.items)
	r.items = append(r.items, item)

	return nil
}

// Query returns a page of items sorted by creation date, newest first.
func (r *MemoryRepository) Query(_ context.Context, q domain.ContentQuery) (domain.ContentPage, error) {
	q = normalizeQuery(q)

	r.mu.RLock()
	matched := lo.Filter(r.items, func(item domain.ContentItem, _ int) bool {
		return len(q.Tags) == 0 || lo.Some(item.Tags, q.Tags)
	})
	matched = lo.Map(matched, func(item domain.ContentItem, _ int) domain.ContentItem {
		return cloneItem(item)
	})
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := domain.ContentPage{Total: len(matched), Page: q.Page, Limit: q.Limit}
	start := min((q.Page-1)*q.Limit, len(matched))
	end := min(start+q.Limit, len(matched))
	page.Items = matched[start:end]

	return page, nil
}

// Len reports the number of stored items.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func cloneItem(item domain.ContentItem) domain.ContentItem {
	item.Tags = slices.Clone(item.Tags)
	return item
}
