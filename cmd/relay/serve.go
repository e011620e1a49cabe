package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/support-relay/internal/api/anthropic"
	"github.com/tjfontaine/support-relay/internal/chat"
	"github.com/tjfontaine/support-relay/internal/config"
	"github.com/tjfontaine/support-relay/internal/prompt"
	"github.com/tjfontaine/support-relay/internal/relay"
	"github.com/tjfontaine/support-relay/internal/search"
	"github.com/tjfontaine/support-relay/internal/server"
	"github.com/tjfontaine/support-relay/internal/telemetry"
	"github.com/tjfontaine/support-relay/internal/tokens"
	"github.com/tjfontaine/support-relay/internal/tools"
)

type ServeCommand struct{}

func (c ServeCommand) Run(ctx context.Context, g *Globals) (err error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := getLogger(cfg.Log.Level)
	slog.SetDefault(log)

	shutdown, err := telemetry.InitTracer(cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	if cfg.Anthropic.EnablePromptCaching {
		check := tokens.CheckCacheable(tokens.NewTiktokenCounter(), cfg.Anthropic.Model, prompt.Template)
		if !check.Cacheable() {
			log.Warn("system prompt is shorter than the cacheable minimum, caching will have no effect",
				slog.String("model", cfg.Anthropic.Model),
				slog.Int("tokens", check.Tokens),
				slog.Int("minimum", check.Minimum),
				slog.Bool("estimated", check.Estimated))
		}
	}

	httpClient := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	api := anthropic.NewClient(cfg.Anthropic.Token,
		anthropic.WithBaseURL(cfg.Anthropic.BaseURL),
		anthropic.WithHTTPClient(httpClient))

	searcher := tools.NewWebSearcher(search.New(cfg.Search, search.WithLogger(log)), log)
	orchestrator := chat.New(cfg.Anthropic, api, searcher, log)

	srv := server.New(cfg.Server, log)
	relay.New(log, orchestrator, cfg.Anthropic.EnablePromptCaching).Register(srv.Router)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("relay configured",
		slog.String("model", cfg.Anthropic.Model),
		slog.Bool("prompt_caching", cfg.Anthropic.EnablePromptCaching),
		slog.Any("tools", tools.Names()))

	return srv.Start(ctx)
}
