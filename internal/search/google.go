// Package search scrapes result links from a Google results page.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/support-relay/internal/config"
	"github.com/tjfontaine/support-relay/internal/pkg/safehttp"
)

const (
	defaultTLD       = "com"
	defaultUserAgent = "Mozilla/4.0 (compatible; MSIE 8.0; Windows NT 6.0)"
)

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client fetches results pages and extracts the organic result links.
// It holds no per-query state and is safe for concurrent use.
type Client struct {
	baseURL    string
	lang       string
	pause      time.Duration
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New creates a Client from the search settings.
func New(cfg config.SearchConfig, opts ...Option) *Client {
	tld := cfg.TLD
	if tld == "" {
		tld = defaultTLD
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.google." + tld
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		lang:      cfg.Lang,
		pause:     cfg.Pause,
		userAgent: userAgent,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(safehttp.NewTransport()),
		},
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("support-relay/search"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns up to stop result URLs for query, requesting num results per
// page. Each page request is preceded by the configured pause.
func (c *Client) Search(ctx context.Context, query string, num, stop int) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.String("search.query", query),
		attribute.Int("search.num", num),
		attribute.Int("search.stop", stop),
	))
	defer span.End()

	if num <= 0 {
		num = 10
	}

	seen := make(map[string]struct{})
	var results []string

	for start := 0; stop <= 0 || len(results) < stop; start += num {
		if err := sleep(ctx, c.pause); err != nil {
			span.RecordError(err)
			return results, err
		}

		links, err := c.fetchPage(ctx, query, num, start)
		if err != nil {
			span.RecordError(err)
			return results, err
		}

		found := 0
		for _, link := range links {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			found++
			results = append(results, link)
			if stop > 0 && len(results) >= stop {
				break
			}
		}

		c.logger.DebugContext(ctx, "search page parsed",
			slog.Int("start", start),
			slog.Int("links", len(links)),
			slog.Int("new", found))

		// Nothing new means we ran out of pages.
		if found == 0 {
			break
		}
	}

	span.SetAttributes(attribute.Int("search.results", len(results)))
	return results, nil
}

func (c *Client) fetchPage(ctx context.Context, query string, num, start int) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))
	if c.lang != "" {
		params.Set("hl", c.lang)
	}
	if start > 0 {
		params.Set("start", strconv.Itoa(start))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	return extractLinks(doc), nil
}

// extractLinks returns the result links of a page in document order.
func extractLinks(doc *goquery.Document) []string {
	anchors := doc.Find("#search a")
	if anchors.Length() == 0 {
		anchors = doc.Find("a")
	}

	var links []string
	anchors.Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if link, ok := filterResult(href); ok {
			links = append(links, link)
		}
	})
	return links
}

// filterResult unwraps /url?q= redirects and rejects relative links and links
// back to Google itself.
func filterResult(href string) (string, bool) {
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return "", false
		}
		href = u.Query().Get("q")
	}

	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if isGoogleHost(u.Hostname()) {
		return "", false
	}
	return href, true
}

func isGoogleHost(host string) bool {
	host = strings.ToLower(host)
	for _, label := range strings.Split(host, ".") {
		if label == "google" || label == "googleusercontent" || label == "gstatic" {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
