package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"FeedScanner/internal/domain"
)

// SourceKindHTML selects the HTML listing strategy.
const SourceKindHTML = "html"

// Option keys understood by HTMLScanner, with their defaults.
const (
	OptItemSelector  = "item"
	OptTitleSelector = "title"
	OptLinkSelector  = "link"
	OptBodySelector  = "body"
	OptDateSelector  = "date"
	OptDateAttr      = "dateAttr"
	OptDateLayout    = "dateLayout"
)

var htmlDefaults = map[string]string{
	OptItemSelector:  "article",
	OptTitleSelector: "h2",
	OptLinkSelector:  "a[href]",
	OptBodySelector:  "p",
	OptDateSelector:  "time",
	OptDateAttr:      "datetime",
	OptDateLayout:    time.RFC3339,
}

// HTMLScanner extracts entries from listing pages that publish no feed.
// Selectors are taken from the source options.
type HTMLScanner struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// NewHTMLScanner wires an HTTP client; a nil client gets the default timeout.
func NewHTMLScanner(client *http.Client, userAgent string) *HTMLScanner {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &HTMLScanner{client: client, userAgent: userAgent, maxBody: MaxBodyBytes}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return SourceKindHTML
}

// Scan downloads the listing page and extracts one raw item per item selector match.
func (h *HTMLScanner) Scan(ctx context.Context, source domain.SourceDescriptor) ([]domain.RawItem, error) {
	base, err := url.Parse(source.URL)
	if err != nil {
		return nil, classifyParseError(fmt.Errorf("invalid source url: %w", err), source.URL)
	}

	doc, err := h.fetchDocument(ctx, source.URL)
	if err != nil {
		return nil, err
	}

	opt := func(key string) string {
		if v := strings.TrimSpace(source.Options[key]); v != "" {
			return v
		}
		return htmlDefaults[key]
	}

	var items []domain.RawItem
	doc.Find(opt(OptItemSelector)).Each(func(_ int, sel *goquery.Selection) {
		items = append(items, parseEntry(sel, base, opt))
	})

	return items, nil
}

func (h *HTMLScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := open(ctx, h.client, h.userAgent, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body, h.maxBody, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, classifyParseError(err, pageURL)
	}

	return doc, nil
}

func parseEntry(sel *goquery.Selection, base *url.URL, opt func(string) string) domain.RawItem {
	link := sel.Find(opt(OptLinkSelector)).First()
	href, _ := link.Attr("href")

	title := strings.TrimSpace(sel.Find(opt(OptTitleSelector)).First().Text())
	if title == "" {
		title = strings.TrimSpace(link.Text())
	}

	body, _ := sel.Find(opt(OptBodySelector)).First().Html()

	item := domain.RawItem{
		Title: title,
		Link:  resolveLink(base, href),
		Body:  strings.TrimSpace(body),
	}

	dateSel := sel.Find(opt(OptDateSelector)).First()
	raw, ok := dateSel.Attr(opt(OptDateAttr))
	if !ok {
		raw = dateSel.Text()
	}
	item.Published = strings.TrimSpace(raw)
	if item.Published != "" {
		if parsed, err := time.Parse(opt(OptDateLayout), item.Published); err == nil {
			item.PublishedAt = &parsed
		}
	}

	return item
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
