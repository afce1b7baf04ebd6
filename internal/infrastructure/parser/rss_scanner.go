package parser

import (
	"context"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"FeedScanner/internal/domain"
)

// httpPrefix is the scheme prefix used to decide whether a GUID is a usable URL.
const httpPrefix = "http"

// RSSScanner fetches RSS, Atom and JSON feeds.
type RSSScanner struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// NewRSSScanner wires an HTTP client; a nil client gets the default timeout.
func NewRSSScanner(client *http.Client, userAgent string) *RSSScanner {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &RSSScanner{client: client, userAgent: userAgent, maxBody: MaxBodyBytes}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return domain.SourceKindRSS
}

// Scan downloads the feed and maps its entries to raw items in feed order.
func (s *RSSScanner) Scan(ctx context.Context, source domain.SourceDescriptor) ([]domain.RawItem, error) {
	resp, err := open(ctx, s.client, s.userAgent, source.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body, s.maxBody, source.URL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, classifyParseError(err, source.URL)
	}

	items := make([]domain.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil {
			continue
		}
		items = append(items, toRawItem(entry))
	}

	return items, nil
}

func toRawItem(entry *gofeed.Item) domain.RawItem {
	var itunesSummary string
	if entry.ITunesExt != nil {
		itunesSummary = entry.ITunesExt.Summary
	}

	item := domain.RawItem{
		Title:       strings.TrimSpace(entry.Title),
		Link:        extractLink(entry),
		Body:        domain.FirstNonEmpty(entry.Content, entry.Description, itunesSummary),
		Published:   domain.FirstNonEmpty(entry.Published, entry.Updated),
		PublishedAt: entry.PublishedParsed,
	}
	if item.PublishedAt == nil {
		item.PublishedAt = entry.UpdatedParsed
	}

	return item
}

// extractLink prefers the explicit link and falls back to an HTTP GUID.
func extractLink(entry *gofeed.Item) string {
	if link := strings.TrimSpace(entry.Link); link != "" {
		return link
	}

	if strings.HasPrefix(entry.GUID, httpPrefix) {
		return entry.GUID
	}

	return ""
}
