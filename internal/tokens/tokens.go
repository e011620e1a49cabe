// Package tokens estimates prompt sizes so the relay can tell whether a
// system prompt is long enough for the provider to cache it.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Counter counts the tokens in a piece of text.
type Counter interface {
	CountText(text string) (int, error)
}

// TiktokenCounter counts with a tiktoken encoding. Anthropic does not publish
// its tokenizer, so cl100k_base is used as a close approximation.
type TiktokenCounter struct {
	encoding tokenizer.Encoding

	once  sync.Once
	codec tokenizer.Codec
	err   error
}

// NewTiktokenCounter creates a counter for the cl100k_base encoding.
func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{encoding: tokenizer.Cl100kBase}
}

// CountText counts tokens for a plain text string.
func (c *TiktokenCounter) CountText(text string) (int, error) {
	c.once.Do(func() {
		c.codec, c.err = tokenizer.Get(c.encoding)
	})
	if c.err != nil {
		return 0, fmt.Errorf("failed to get tokenizer encoding: %w", c.err)
	}

	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Estimator provides token count estimation based on character count.
// It is the fallback when no encoding is available.
type Estimator struct {
	// CharsPerToken is the average characters per token (default: 4)
	CharsPerToken float64
}

// NewEstimator creates a new token estimator.
func NewEstimator() *Estimator {
	return &Estimator{
		CharsPerToken: 4.0,
	}
}

// CountText estimates the token count.
func (e *Estimator) CountText(text string) (int, error) {
	return int(float64(len(text)) / e.CharsPerToken), nil
}

// ModelMatcher helps match model names to provider patterns.
type ModelMatcher struct {
	prefixes []string
	exact    []string
}

// NewModelMatcher creates a new model matcher.
func NewModelMatcher(prefixes, exact []string) *ModelMatcher {
	return &ModelMatcher{
		prefixes: prefixes,
		exact:    exact,
	}
}

// Matches returns true if the model matches any pattern.
func (m *ModelMatcher) Matches(model string) bool {
	for _, e := range m.exact {
		if model == e {
			return true
		}
	}

	for _, p := range m.prefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}

	return false
}

// Minimum cacheable prompt lengths, in tokens.
const (
	MinCacheableTokens      = 1024
	MinCacheableTokensHaiku = 2048
)

var haikuModels = NewModelMatcher([]string{"claude-3-haiku", "claude-3-5-haiku", "claude-haiku"}, nil)

// MinCacheable returns the shortest prompt the provider will cache for model.
func MinCacheable(model string) int {
	if haikuModels.Matches(strings.ToLower(model)) {
		return MinCacheableTokensHaiku
	}
	return MinCacheableTokens
}

// CacheCheck is the result of sizing a prompt against the cache minimum.
type CacheCheck struct {
	Tokens    int
	Minimum   int
	Estimated bool
}

// Cacheable reports whether the prompt meets the minimum.
func (c CacheCheck) Cacheable() bool {
	return c.Tokens >= c.Minimum
}

// CheckCacheable counts text with counter, falling back to the Estimator when
// the counter fails, and compares the result against MinCacheable(model).
func CheckCacheable(counter Counter, model, text string) CacheCheck {
	check := CacheCheck{Minimum: MinCacheable(model)}

	if counter != nil {
		if n, err := counter.CountText(text); err == nil {
			check.Tokens = n
			return check
		}
	}

	check.Tokens, _ = NewEstimator().CountText(text)
	check.Estimated = true
	return check
}
