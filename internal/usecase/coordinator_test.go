package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/infrastructure/storage"
	"FeedScanner/internal/ports"
	"FeedScanner/internal/usecase"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func source(name, url string, tags ...string) domain.SourceDescriptor {
	return domain.SourceDescriptor{Name: name, URL: url, Kind: domain.SourceKindRSS, Tags: tags}
}

func raw(link, title string) domain.RawItem {
	return domain.RawItem{Title: title, Link: link, Body: "<p>Some body text about " + title + "</p>"}
}

func newCoordinator(sources []domain.SourceDescriptor, fetcher *fakeFetcher, repo ports.ContentRepository, notifier *recordingNotifier) *usecase.Coordinator {
	deps := usecase.CoordinatorDeps{
		Sources:      sources,
		Fetcher:      fetcher,
		Repository:   repo,
		FetchTimeout: time.Second,
		Concurrency:  2,
		Now:          func() time.Time { return fixedNow },
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	return usecase.NewCoordinator(deps)
}

func TestRunCycleAddsAndNotifies(t *testing.T) {
	sources := []domain.SourceDescriptor{
		source("DEV.to", "https://dev.to/feed", "programming", "webdev"),
		source("CSS-Tricks", "https://css-tricks.com/feed/", "css"),
	}
	fetcher := &fakeFetcher{items: map[string][]domain.RawItem{
		"https://dev.to/feed":          {raw("https://dev.to/a", "A"), raw("https://dev.to/b", "B")},
		"https://css-tricks.com/feed/": {raw("https://css-tricks.com/c", "C")},
	}}
	repo := storage.NewMemoryRepository()
	notifier := &recordingNotifier{}

	report := newCoordinator(sources, fetcher, repo, notifier).RunCycle(context.Background())

	assert.Equal(t, 2, report.Sources)
	assert.Equal(t, 3, report.ItemsSeen)
	assert.Equal(t, 3, report.ItemsAdded)
	assert.Empty(t, report.SourceErrors)
	assert.Empty(t, report.ItemErrors)
	assert.Equal(t, 3, repo.Len())
	require.Equal(t, 3, notifier.count())
	for _, event := range notifier.events {
		assert.Equal(t, domain.EventNewContent, event)
	}

	item, found, err := repo.FindByLink(context.Background(), "https://dev.to/a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "DEV.to", item.Source)
	assert.Equal(t, []string{"programming", "webdev"}, item.Tags[:2])
}

func TestRunCycleIsIdempotent(t *testing.T) {
	sources := []domain.SourceDescriptor{source("DEV.to", "https://dev.to/feed")}
	fetcher := &fakeFetcher{items: map[string][]domain.RawItem{
		"https://dev.to/feed": {raw("https://dev.to/a", "A"), raw("https://dev.to/b", "B")},
	}}
	repo := storage.NewMemoryRepository()
	notifier := &recordingNotifier{}
	coordinator := newCoordinator(sources, fetcher, repo, notifier)

	first := coordinator.RunCycle(context.Background())
	second := coordinator.RunCycle(context.Background())

	assert.Equal(t, 2, first.ItemsAdded)
	assert.Equal(t, 0, second.ItemsAdded)
	assert.Equal(t, 2, second.ItemsSkipped)
	assert.Equal(t, 2, repo.Len())
	assert.Equal(t, 2, notifier.count())
}

func TestRunCycleSameLinkAcrossFeeds(t *testing.T) {
	sources := []domain.SourceDescriptor{
		source("Medium", "https://medium.com/feed/tag/javascript"),
		source("DEV.to", "https://dev.to/feed"),
	}
	shared := raw("https://example.com/shared-post", "Shared")
	fetcher := &fakeFetcher{items: map[string][]domain.RawItem{
		"https://medium.com/feed/tag/javascript": {shared},
		"https://dev.to/feed":                    {shared},
	}}
	repo := storage.NewMemoryRepository()
	notifier := &recordingNotifier{}

	report := newCoordinator(sources, fetcher, repo, notifier).RunCycle(context.Background())

	assert.Equal(t, 1, report.ItemsAdded)
	assert.Equal(t, 1, report.ItemsSkipped)
	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, 1, notifier.count())
}

func TestRunCycleDuplicateOnInsertIsSkip(t *testing.T) {
	sources := []domain.SourceDescriptor{
		source("A", "https://a.test/feed"),
		source("B", "https://b.test/feed"),
	}
	shared := raw("https://example.com/race", "Race")
	fetcher := &fakeFetcher{items: map[string][]domain.RawItem{
		"https://a.test/feed": {shared},
		"https://b.test/feed": {shared},
	}}
	repo := &racingRepository{failingRepository{inner: storage.NewMemoryRepository()}}
	notifier := &recordingNotifier{}

	report := newCoordinator(sources, fetcher, repo, notifier).RunCycle(context.Background())

	assert.Equal(t, 1, report.ItemsAdded)
	assert.Equal(t, 1, report.ItemsSkipped)
	assert.Empty(t, report.ItemErrors)
	assert.Equal(t, 1, notifier.count())
}

func TestRunCycleIsolatesSourceFailures(t *testing.T) {
	sources := []domain.SourceDescriptor{
		source("Broken", "https://broken.test/feed"),
		source("Slow", "https://slow.test/feed"),
		source("Healthy", "https://healthy.test/feed"),
	}
	fetcher := &fakeFetcher{
		items: map[string][]domain.RawItem{
			"https://healthy.test/feed": {raw("https://healthy.test/1", "One")},
		},
		errs:  map[string]error{"https://broken.test/feed": errors.New("HTTP 503")},
		block: map[string]bool{"https://slow.test/feed": true},
	}
	repo := storage.NewMemoryRepository()

	coordinator := usecase.NewCoordinator(usecase.CoordinatorDeps{
		Sources:      sources,
		Fetcher:      fetcher,
		Repository:   repo,
		FetchTimeout: 50 * time.Millisecond,
	})
	report := coordinator.RunCycle(context.Background())

	assert.Equal(t, 1, report.ItemsAdded)
	require.Len(t, report.SourceErrors, 2)
	assert.Equal(t, "Broken", report.SourceErrors[0].Source)
	assert.Contains(t, report.SourceErrors[0].Err, "HTTP 503")
	assert.Equal(t, "Slow", report.SourceErrors[1].Source)
	assert.Contains(t, report.SourceErrors[1].Err, context.DeadlineExceeded.Error())
}

func TestRunCycleSwallowsNotifyFailures(t *testing.T) {
	sources := []domain.SourceDescriptor{source("DEV.to", "https://dev.to/feed")}
	fetcher := &fakeFetcher{items: map[string][]domain.RawItem{
		"https://dev.to/feed": {raw("https://dev.to/a", "A"), raw("https://dev.to/b", "B")},
	}}
	repo := storage.NewMemoryRepository()
	notifier := &recordingNotifier{err: errors.New("no subscribers reachable")}

	report := newCoordinator(sources, fetcher, repo, notifier).RunCycle(context.Background())

	assert.Equal(t, 2, report.ItemsAdded)
	assert.Empty(t, report.ItemErrors)
	assert.Equal(t, 2, repo.Len())
	assert.Equal(t, 2, notifier.count())
}

func TestRunCycleRecordsItemErrors(t *testing.T) {
	sources := []domain.SourceDescriptor{source("DEV.to", "https://dev.to/feed")}
	fetcher := &fakeFetcher{items: map[string][]domain.RawItem{
		"https://dev.to/feed": {
			raw("", "No link"),
			raw("/relative/path", "Relative"),
			raw("https://dev.to/store-fails", "Store fails"),
			raw("https://dev.to/ok", "Ok"),
		},
	}}
	repo := &failingRepository{
		inner:      storage.NewMemoryRepository(),
		failInsert: map[string]bool{"https://dev.to/store-fails": true},
	}
	notifier := &recordingNotifier{}

	report := newCoordinator(sources, fetcher, repo, notifier).RunCycle(context.Background())

	assert.Equal(t, 4, report.ItemsSeen)
	assert.Equal(t, 1, report.ItemsAdded)
	require.Len(t, report.ItemErrors, 3)
	assert.Contains(t, report.ItemErrors[0].Err, domain.ErrInvalidItem.Error())
	assert.Equal(t, "/relative/path", report.ItemErrors[1].Link)
	assert.Contains(t, report.ItemErrors[2].Err, errStoreDown.Error())
	assert.Equal(t, 1, notifier.count())
}

func TestRunCycleProcessesFirstFiveItems(t *testing.T) {
	items := make([]domain.RawItem, 0, 8)
	for i := 0; i < 8; i++ {
		items = append(items, raw(fmt.Sprintf("https://dev.to/%d", i), fmt.Sprintf("Post %d", i)))
	}
	sources := []domain.SourceDescriptor{source("DEV.to", "https://dev.to/feed")}
	fetcher := &fakeFetcher{items: map[string][]domain.RawItem{"https://dev.to/feed": items}}
	repo := storage.NewMemoryRepository()

	report := newCoordinator(sources, fetcher, repo, nil).RunCycle(context.Background())

	assert.Equal(t, 5, report.ItemsSeen)
	assert.Equal(t, 5, report.ItemsAdded)
	_, found, err := repo.FindByLink(context.Background(), "https://dev.to/5")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRunCycleBuildsContentItem(t *testing.T) {
	published := time.Date(2024, 12, 24, 8, 30, 0, 0, time.UTC)
	sources := []domain.SourceDescriptor{source("freeCodeCamp", "https://www.freecodecamp.org/news/rss/", "programming", "tutorials")}
	fetcher := &fakeFetcher{items: map[string][]domain.RawItem{
		"https://www.freecodecamp.org/news/rss/": {
			{
				Title:       "Getting Started with React",
				Link:        " https://fcc.test/react ",
				Body:        "<p>Learn how to build components with React and JSX.</p>",
				PublishedAt: &published,
			},
			{Title: "", Link: "https://fcc.test/untitled", Body: "text", Published: "Tue, 10 Jun 2025 15:04:05 +0000"},
			{Title: "Bad date", Link: "https://fcc.test/bad-date", Body: "text", Published: "yesterday"},
		},
	}}
	repo := storage.NewMemoryRepository()

	report := newCoordinator(sources, fetcher, repo, nil).RunCycle(context.Background())
	require.Equal(t, 3, report.ItemsAdded)

	ctx := context.Background()
	react, _, err := repo.FindByLink(ctx, "https://fcc.test/react")
	require.NoError(t, err)
	assert.Equal(t, "Getting Started with React", react.Title)
	assert.Equal(t, domain.DifficultyBeginner, react.Difficulty)
	assert.Equal(t, []string{"programming", "tutorials", "javascript"}, react.Tags[:3])
	assert.Equal(t, "Learn how to build components with React and JSX.", react.Summary)
	assert.Equal(t, 1, react.ReadingTime)
	assert.True(t, published.Equal(react.CreatedAt))

	untitled, _, err := repo.FindByLink(ctx, "https://fcc.test/untitled")
	require.NoError(t, err)
	assert.Equal(t, domain.UntitledPlaceholder, untitled.Title)
	assert.True(t, time.Date(2025, 6, 10, 15, 4, 5, 0, time.UTC).Equal(untitled.CreatedAt))

	badDate, _, err := repo.FindByLink(ctx, "https://fcc.test/bad-date")
	require.NoError(t, err)
	assert.True(t, fixedNow.Equal(badDate.CreatedAt))
}
