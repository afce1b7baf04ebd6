package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"FeedScanner/internal/classifier"
	"FeedScanner/internal/domain"
	"FeedScanner/internal/ports"
)

const (
	DefaultMaxItems     = 5
	DefaultFetchTimeout = 20 * time.Second
	DefaultConcurrency  = 4
)

// publishedLayouts are tried in order when a fetcher only returns the raw date.
var publishedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CoordinatorDeps wires all driven adapters into the ingestion cycle.
type CoordinatorDeps struct {
	Sources    []domain.SourceDescriptor
	Fetcher    ports.FeedFetcher
	Repository ports.ContentRepository
	Notifier   ports.Notifier
	Observer   ports.CycleObserver
	Logger     *slog.Logger

	MaxItems     int
	FetchTimeout time.Duration
	Concurrency  int
	Now          func() time.Time
}

// Coordinator runs fetch, dedup, classify, persist and notify over all sources.
type Coordinator struct {
	sources    []domain.SourceDescriptor
	fetcher    ports.FeedFetcher
	repository ports.ContentRepository
	notifier   ports.Notifier
	observer   ports.CycleObserver
	logger     *slog.Logger

	maxItems     int
	fetchTimeout time.Duration
	concurrency  int
	now          func() time.Time
}

// NewCoordinator constructs the ingestion use case.
func NewCoordinator(deps CoordinatorDeps) *Coordinator {
	c := &Coordinator{
		sources:      deps.Sources,
		fetcher:      deps.Fetcher,
		repository:   deps.Repository,
		notifier:     deps.Notifier,
		observer:     deps.Observer,
		logger:       deps.Logger,
		maxItems:     deps.MaxItems,
		fetchTimeout: deps.FetchTimeout,
		concurrency:  deps.Concurrency,
		now:          deps.Now,
	}

	if c.observer == nil {
		c.observer = noopObserver{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.maxItems <= 0 {
		c.maxItems = DefaultMaxItems
	}
	if c.fetchTimeout <= 0 {
		c.fetchTimeout = DefaultFetchTimeout
	}
	if c.concurrency <= 0 {
		c.concurrency = DefaultConcurrency
	}
	if c.now == nil {
		c.now = time.Now
	}

	return c
}

type sourceResult struct {
	seen, added, skipped int
	sourceErr            *domain.SourceError
	itemErrs             []domain.ItemError
}

// RunCycle processes every source once. Failures are recorded in the report,
// never returned.
func (c *Coordinator) RunCycle(ctx context.Context) domain.CycleReport {
	report := domain.CycleReport{
		StartedAt:    c.now(),
		Sources:      len(c.sources),
		SourceErrors: []domain.SourceError{},
		ItemErrors:   []domain.ItemError{},
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(c.concurrency)

	for _, src := range c.sources {
		g.Go(func() error {
			res := c.processSource(ctx, src)

			mu.Lock()
			defer mu.Unlock()
			report.ItemsSeen += res.seen
			report.ItemsAdded += res.added
			report.ItemsSkipped += res.skipped
			if res.sourceErr != nil {
				report.SourceErrors = append(report.SourceErrors, *res.sourceErr)
			}
			report.ItemErrors = append(report.ItemErrors, res.itemErrs...)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(report.SourceErrors, func(i, j int) bool {
		return report.SourceErrors[i].Source < report.SourceErrors[j].Source
	})
	sort.SliceStable(report.ItemErrors, func(i, j int) bool {
		return report.ItemErrors[i].Source < report.ItemErrors[j].Source
	})

	report.FinishedAt = c.now()
	c.observer.ObserveCycle(report)
	c.logger.Info("ingestion cycle complete",
		"sources", report.Sources,
		"seen", report.ItemsSeen,
		"added", report.ItemsAdded,
		"skipped", report.ItemsSkipped,
		"source_errors", len(report.SourceErrors),
		"item_errors", len(report.ItemErrors),
		"duration", report.Duration(),
	)

	return report
}

func (c *Coordinator) processSource(ctx context.Context, src domain.SourceDescriptor) sourceResult {
	var res sourceResult
	log := c.logger.With("source", src.Name)

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	raws, err := c.fetcher.Fetch(fetchCtx, src)
	cancel()
	if err != nil {
		log.Warn("fetch source failed", "url", src.URL, "error", err)
		c.observer.ObserveSourceError(src.Name, err)
		res.sourceErr = &domain.SourceError{Source: src.Name, URL: src.URL, Err: err.Error()}
		return res
	}

	if len(raws) > c.maxItems {
		raws = raws[:c.maxItems]
	}

	for _, raw := range raws {
		if ctx.Err() != nil {
			break
		}
		res.seen++

		outcome, err := c.processItem(ctx, src, raw)
		c.observer.ObserveItem(src.Name, outcome)
		switch outcome {
		case ports.OutcomeAdded:
			res.added++
		case ports.OutcomeSkipped:
			res.skipped++
		default:
			log.Warn("process item failed", "link", raw.Link, "error", err)
			res.itemErrs = append(res.itemErrs, domain.ItemError{Source: src.Name, Link: raw.Link, Err: err.Error()})
		}
	}

	log.Debug("source processed", "seen", res.seen, "added", res.added, "skipped", res.skipped)
	return res
}

func (c *Coordinator) processItem(ctx context.Context, src domain.SourceDescriptor, raw domain.RawItem) (string, error) {
	link := strings.TrimSpace(raw.Link)
	if !isAbsoluteURL(link) {
		return ports.OutcomeFailed, fmt.Errorf("%w: link %q is not an absolute URL", domain.ErrInvalidItem, link)
	}

	_, found, err := c.repository.FindByLink(ctx, link)
	if err != nil {
		return ports.OutcomeFailed, fmt.Errorf("find by link: %w", err)
	}
	if found {
		return ports.OutcomeSkipped, nil
	}

	raw.Link = link
	item := c.buildItem(src, raw)

	if err := c.repository.Insert(ctx, item); err != nil {
		if errors.Is(err, domain.ErrDuplicateLink) {
			return ports.OutcomeSkipped, nil
		}
		return ports.OutcomeFailed, fmt.Errorf("insert content: %w", err)
	}

	if c.notifier != nil {
		if err := c.notifier.Broadcast(ctx, domain.EventNewContent, item); err != nil {
			c.logger.Warn("broadcast new content failed", "source", src.Name, "link", link, "error", err)
			c.observer.ObserveNotifyFailure()
		}
	}

	return ports.OutcomeAdded, nil
}

func (c *Coordinator) buildItem(src domain.SourceDescriptor, raw domain.RawItem) domain.ContentItem {
	title := strings.TrimSpace(raw.Title)
	result := classifier.Classify(title, raw.Body, src.Tags)

	if title == "" {
		title = domain.UntitledPlaceholder
	}

	return domain.ContentItem{
		Title:       title,
		Link:        raw.Link,
		Summary:     result.Summary,
		Tags:        result.Tags,
		ReadingTime: result.ReadingTime,
		Difficulty:  result.Difficulty,
		Source:      src.Name,
		CreatedAt:   c.createdAt(raw),
	}
}

func (c *Coordinator) createdAt(raw domain.RawItem) time.Time {
	if raw.PublishedAt != nil && !raw.PublishedAt.IsZero() {
		return raw.PublishedAt.UTC()
	}
	if published, ok := parsePublished(raw.Published); ok {
		return published.UTC()
	}
	return c.now().UTC()
}

func parsePublished(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isAbsoluteURL(link string) bool {
	if link == "" {
		return false
	}
	u, err := url.Parse(link)
	return err == nil && u.IsAbs() && u.Host != ""
}

type noopObserver struct{}

func (noopObserver) ObserveItem(string, string)       {}
func (noopObserver) ObserveSourceError(string, error) {}
func (noopObserver) ObserveNotifyFailure()            {}
func (noopObserver) ObserveCycle(domain.CycleReport)  {}
