// Package config loads the relay's process-wide settings once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is read when present; its absence is not an error.
const DefaultFile = "relay.yaml"

// ErrMissing is returned when a required setting is absent.
var ErrMissing = errors.New("missing required configuration")

type Config struct {
	Anthropic AnthropicConfig `koanf:"anthropic"`
	Server    ServerConfig    `koanf:"server"`
	Search    SearchConfig    `koanf:"search"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type AnthropicConfig struct {
	Token     string `koanf:"token"`
	Model     string `koanf:"model"`
	BaseURL   string `koanf:"base_url"`
	MaxTokens int    `koanf:"max_tokens"`

	// EnablePromptCaching is parsed from anthropic.prompt_caching by Load.
	EnablePromptCaching bool `koanf:"-"`
}

type ServerConfig struct {
	Addr           string        `koanf:"addr"`
	RequestTimeout time.Duration `koanf:"request_timeout"` // 0 disables the timeout
	CORS           bool          `koanf:"cors"`
}

type SearchConfig struct {
	BaseURL   string        `koanf:"base_url"` // overrides https://www.google.<tld>
	TLD       string        `koanf:"tld"`
	Lang      string        `koanf:"lang"`
	Pause     time.Duration `koanf:"pause"`
	UserAgent string        `koanf:"user_agent"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type TelemetryConfig struct {
	Exporter    string `koanf:"exporter"` // none, stdout
	ServiceName string `koanf:"service_name"`
}

// envKeys maps the unprefixed variables the relay has always read.
var envKeys = map[string]string{
	"ENABLE_PROMPT_CACHING": "anthropic.prompt_caching",
	"ANTHROPIC_TOKEN":       "anthropic.token",
	"ANTHROPIC_MODEL":       "anthropic.model",
	"LOG_LEVEL":             "log.level",
}

const envPrefix = "RELAY_"

var defaults = map[string]any{
	"anthropic.base_url":     "https://api.anthropic.com",
	"anthropic.max_tokens":   1000,
	"server.addr":            "0.0.0.0:8088",
	"server.request_timeout": time.Duration(0),
	"server.cors":            false,
	"search.tld":             "co.in",
	"search.lang":            "en",
	"search.pause":           2 * time.Second,
	"search.user_agent":      "Mozilla/4.0 (compatible; MSIE 8.0; Windows NT 6.0)",
	"log.level":              "info",
	"telemetry.exporter":     "none",
	"telemetry.service_name": "support-relay",
}

// Load reads path (if it exists) and then the environment, which wins.
// An empty path means DefaultFile.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = DefaultFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var missing []string
	if !k.Exists("anthropic.prompt_caching") {
		missing = append(missing, "ENABLE_PROMPT_CACHING")
	}
	if k.String("anthropic.token") == "" {
		missing = append(missing, "ANTHROPIC_TOKEN")
	}
	if k.String("anthropic.model") == "" {
		missing = append(missing, "ANTHROPIC_MODEL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	caching, err := parseFlag(k.String("anthropic.prompt_caching"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENABLE_PROMPT_CACHING: %w", err)
	}
	cfg.Anthropic.EnablePromptCaching = caching

	return &cfg, nil
}

// envKey turns an environment variable name into a koanf key. Variables that
// are neither well-known nor RELAY_ prefixed are skipped.
func envKey(s string) string {
	if key, ok := envKeys[s]; ok {
		return key
	}
	if !strings.HasPrefix(s, envPrefix) {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
}

// parseFlag treats a present but empty flag as off.
func parseFlag(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
