package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "FeedScanner/1.0"

const defaultClientTimeout = 20 * time.Second

// MaxBodyBytes caps how much of a response a scanner will read.
const MaxBodyBytes int64 = 10 << 20

// NewHTTPClient returns the client shared by all scanners.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &http.Client{Timeout: timeout}
}

// open performs a GET and returns the response only for 2xx statuses.
// Callers must close the body.
func open(ctx context.Context, client *http.Client, userAgent, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, classifyRequestError(err, url)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_ = resp.Body.Close()
		return nil, classifyStatus(resp.StatusCode, url)
	}

	return resp, nil
}

// readBody reads at most limit bytes of body and fails when more remain.
func readBody(body io.Reader, limit int64, url string) (*bytes.Reader, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, classifyRequestError(fmt.Errorf("read body: %w", err), url)
	}
	if int64(len(data)) > limit {
		return nil, classifyParseError(fmt.Errorf("response body exceeds %d bytes", limit), url)
	}
	return bytes.NewReader(data), nil
}
