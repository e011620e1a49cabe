package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	searchNum  = 2
	searchStop = 2
)

// Searcher returns result URLs for a query, at most stop of them, fetched
// num per page.
type Searcher interface {
	Search(ctx context.Context, query string, num, stop int) ([]string, error)
}

// WebSearcher runs the web_search tool against a Searcher.
type WebSearcher struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewWebSearcher creates a WebSearcher. A nil logger discards output.
func NewWebSearcher(s Searcher, logger *slog.Logger) *WebSearcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &WebSearcher{searcher: s, logger: logger}
}

// WebSearch searches for topic and formats the links. Each result is placed
// in front of the ones before it, so [a, b] reads "b, a".
func (w *WebSearcher) WebSearch(ctx context.Context, topic string) (string, error) {
	w.logger.InfoContext(ctx, "searching the web", slog.String("topic", topic))

	urls, err := w.searcher.Search(ctx, topic, searchNum, searchStop)
	if err != nil {
		return "", fmt.Errorf("web search for %q: %w", topic, err)
	}

	links := make([]string, 0, len(urls))
	for _, u := range urls {
		links = append([]string{u}, links...)
	}

	return fmt.Sprintf("You can find the results for %s in the following links: %s", topic, strings.Join(links, ", ")), nil
}
