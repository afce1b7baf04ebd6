package usecase_test

import (
	"context"
	"errors"
	"sync"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/ports"
)

type fakeFetcher struct {
	items map[string][]domain.RawItem
	errs  map[string]error
	block map[string]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, source domain.SourceDescriptor) ([]domain.RawItem, error) {
	if f.block[source.URL] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[source.URL]; err != nil {
		return nil, err
	}
	return f.items[source.URL], nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	err    error
	events []string
	items  []domain.ContentItem
}

func (n *recordingNotifier) Broadcast(_ context.Context, event string, item domain.ContentItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	n.items = append(n.items, item)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.items)
}

// failingRepository wraps a repository and fails inserts for selected links.
type failingRepository struct {
	inner      ports.ContentRepository
	failInsert map[string]bool
}

var errStoreDown = errors.New("store unavailable")

func (r *failingRepository) FindByLink(ctx context.Context, link string) (domain.ContentItem, bool, error) {
	return r.inner.FindByLink(ctx, link)
}

func (r *failingRepository) Insert(ctx context.Context, item domain.ContentItem) error {
	if r.failInsert[item.Link] {
		return errStoreDown
	}
	return r.inner.Insert(ctx, item)
}

func (r *failingRepository) Query(ctx context.Context, q domain.ContentQuery) (domain.ContentPage, error) {
	return r.inner.Query(ctx, q)
}

// racingRepository reports every link as unseen so the store's unique
// constraint is the only thing preventing a second insert.
type racingRepository struct {
	failingRepository
}

func (r *racingRepository) FindByLink(context.Context, string) (domain.ContentItem, bool, error) {
	return domain.ContentItem{}, false, nil
}
