package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets the relay's variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"ENABLE_PROMPT_CACHING", "ANTHROPIC_TOKEN", "ANTHROPIC_MODEL", "LOG_LEVEL",
		"RELAY_SERVER__ADDR", "RELAY_SERVER__REQUEST_TIMEOUT", "RELAY_SEARCH__PAUSE",
		"RELAY_ANTHROPIC__MAX_TOKENS",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ENABLE_PROMPT_CACHING", "true")
	t.Setenv("ANTHROPIC_TOKEN", "sk-test")
	t.Setenv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022")
}

func missingPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)

		cfg, err := Load(missingPath(t))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Addr != "0.0.0.0:8088" {
			t.Errorf("Server.Addr = %v, want 0.0.0.0:8088", cfg.Server.Addr)
		}
		if cfg.Anthropic.MaxTokens != 1000 {
			t.Errorf("Anthropic.MaxTokens = %v, want 1000", cfg.Anthropic.MaxTokens)
		}
		if cfg.Search.Pause != 2*time.Second {
			t.Errorf("Search.Pause = %v, want 2s", cfg.Search.Pause)
		}
		if cfg.Search.TLD != "co.in" {
			t.Errorf("Search.TLD = %v, want co.in", cfg.Search.TLD)
		}
		if cfg.Server.RequestTimeout != 0 {
			t.Errorf("Server.RequestTimeout = %v, want 0", cfg.Server.RequestTimeout)
		}
		if !cfg.Anthropic.EnablePromptCaching {
			t.Error("EnablePromptCaching = false, want true")
		}
		if cfg.Anthropic.Token != "sk-test" || cfg.Anthropic.Model != "claude-3-5-sonnet-20241022" {
			t.Errorf("unexpected anthropic config: %+v", cfg.Anthropic)
		}
	})

	t.Run("env var overrides", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		t.Setenv("RELAY_SERVER__ADDR", "127.0.0.1:9000")
		t.Setenv("RELAY_SERVER__REQUEST_TIMEOUT", "45s")
		t.Setenv("RELAY_ANTHROPIC__MAX_TOKENS", "512")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load(missingPath(t))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Addr != "127.0.0.1:9000" {
			t.Errorf("Server.Addr = %v", cfg.Server.Addr)
		}
		if cfg.Server.RequestTimeout != 45*time.Second {
			t.Errorf("Server.RequestTimeout = %v", cfg.Server.RequestTimeout)
		}
		if cfg.Anthropic.MaxTokens != 512 {
			t.Errorf("Anthropic.MaxTokens = %v", cfg.Anthropic.MaxTokens)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %v", cfg.Log.Level)
		}
	})

	t.Run("file then env", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		t.Setenv("RELAY_SEARCH__PAUSE", "0s")

		path := filepath.Join(t.TempDir(), "relay.yaml")
		content := "server:\n  addr: 127.0.0.1:7000\nsearch:\n  tld: com\n  pause: 5s\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Addr != "127.0.0.1:7000" {
			t.Errorf("Server.Addr = %v", cfg.Server.Addr)
		}
		if cfg.Search.TLD != "com" {
			t.Errorf("Search.TLD = %v", cfg.Search.TLD)
		}
		if cfg.Search.Pause != 0 {
			t.Errorf("Search.Pause = %v, want env to win", cfg.Search.Pause)
		}
	})
}

func TestLoad_Missing(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{name: "caching flag", unset: "ENABLE_PROMPT_CACHING"},
		{name: "token", unset: "ANTHROPIC_TOKEN"},
		{name: "model", unset: "ANTHROPIC_MODEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setRequired(t)
			os.Unsetenv(tt.unset)

			_, err := Load(missingPath(t))
			if !errors.Is(err, ErrMissing) {
				t.Fatalf("Load() error = %v, want ErrMissing", err)
			}
			if !strings.Contains(err.Error(), tt.unset) {
				t.Errorf("error %q does not name %s", err, tt.unset)
			}
		})
	}

	t.Run("all missing reported together", func(t *testing.T) {
		clearEnv(t)

		_, err := Load(missingPath(t))
		if !errors.Is(err, ErrMissing) {
			t.Fatalf("Load() error = %v, want ErrMissing", err)
		}
		for _, name := range []string{"ENABLE_PROMPT_CACHING", "ANTHROPIC_TOKEN", "ANTHROPIC_MODEL"} {
			if !strings.Contains(err.Error(), name) {
				t.Errorf("error %q does not name %s", err, name)
			}
		}
	})
}

func TestLoad_PromptCachingFlag(t *testing.T) {
	tests := []struct {
		value   string
		want    bool
		wantErr bool
	}{
		{value: "true", want: true},
		{value: "1", want: true},
		{value: "false", want: false},
		{value: "0", want: false},
		{value: "", want: false},
		{value: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			setRequired(t)
			t.Setenv("ENABLE_PROMPT_CACHING", tt.value)

			cfg, err := Load(missingPath(t))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Anthropic.EnablePromptCaching != tt.want {
				t.Errorf("EnablePromptCaching = %v, want %v", cfg.Anthropic.EnablePromptCaching, tt.want)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "ANTHROPIC_TOKEN", want: "anthropic.token"},
		{in: "LOG_LEVEL", want: "log.level"},
		{in: "RELAY_SERVER__REQUEST_TIMEOUT", want: "server.request_timeout"},
		{in: "RELAY_SEARCH__USER_AGENT", want: "search.user_agent"},
		{in: "HOME", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := envKey(tt.in); got != tt.want {
				t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
