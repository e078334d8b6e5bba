// Package fetcher retrieves the page and robots document that the analyzer
// scores. Pages are requested as GPTBot first and retried with a browser user
// agent when the crawler is refused.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// AIUserAgent is the crawler identity used for the first attempt.
	AIUserAgent = "Mozilla/5.0 (compatible; GPTBot/1.0; +https://openai.com/gptbot)"
	// BrowserUserAgent is used for the fallback attempt.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxPageBodyBytes   = 10 << 20 // 10 MB
	maxRobotsBodyBytes = 512 << 10
	robotsTxtPath      = "/robots.txt"
)

// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("invalid url")

// Page is a fetched HTML document.
type Page struct {
	URL        string
	HTML       []byte
	StatusCode int
	// AIBlocked is true when the crawler user agent was refused and the body
	// came from the browser fallback.
	AIBlocked bool
}

// NewHTTPClient returns a client with a pooled transport, following the
// shape the analyzer has always used.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// NormalizeURL adds an https scheme when none is given and rejects anything
// that is not an absolute http(s) URL with a host and no userinfo.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https") {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.User != nil {
		return "", fmt.Errorf("%w: credentials are not allowed", ErrInvalidURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return u.String(), nil
}

// PageFetcher downloads pages.
type PageFetcher struct {
	client *http.Client
}

// NewPageFetcher creates a PageFetcher using the given client.
func NewPageFetcher(client *http.Client) *PageFetcher {
	return &PageFetcher{client: client}
}

var browserHeaders = map[string]string{
	"User-Agent":      BrowserUserAgent,
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language": "es-ES,es;q=0.9,en;q=0.8",
}

var crawlerHeaders = map[string]string{
	"User-Agent":      AIUserAgent,
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "es-ES,es;q=0.9,en;q=0.8",
}

// Fetch requests the page as GPTBot. A 401 or 403 triggers a single retry with
// a browser user agent, and the result is marked AIBlocked. Other statuses
// are returned unchanged; only transport failures are errors.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (Page, error) {
	body, status, err := f.get(ctx, pageURL, crawlerHeaders)
	if err != nil {
		return Page{URL: pageURL}, err
	}
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return Page{URL: pageURL, HTML: body, StatusCode: status}, nil
	}

	body, status, err = f.get(ctx, pageURL, browserHeaders)
	if err != nil {
		return Page{URL: pageURL, AIBlocked: true}, fmt.Errorf("fallback fetch: %w", err)
	}
	return Page{URL: pageURL, HTML: body, StatusCode: status, AIBlocked: true}, nil
}

func (f *PageFetcher) get(ctx context.Context, pageURL string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
