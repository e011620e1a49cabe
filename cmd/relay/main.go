package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

type Globals struct {
	Config string `help:"Optional YAML config file; the environment overrides it." env:"RELAY_CONFIG" default:"relay.yaml"`
}

type CLI struct {
	Globals

	Serve   ServeCommand   `cmd:"serve" help:"Start the chat relay."`
	Ask     AskCommand     `cmd:"ask" help:"Send one message to a running relay."`
	Tools   ToolsCommand   `cmd:"tools" help:"Print the tools offered to the model."`
	Version VersionCommand `cmd:"version" help:"Print the version of the relay."`
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var cli CLI
	ctx := context.Background()
	kctx := kong.Parse(&cli,
		kong.Name("relay"),
		kong.Description("Customer-service chat relay."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)))
	if err := kctx.Run(&cli.Globals); err != nil {
		log := getLogger("error")
		log.Error("error", slog.Any("error", err))
		os.Exit(1)
	}
}

func getLogger(level string) *slog.Logger {
	ll := slog.LevelInfo
	switch level {
	case "debug":
		ll = slog.LevelDebug
	case "info":
		ll = slog.LevelInfo
	case "warn":
		ll = slog.LevelWarn
	case "error":
		ll = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ll,
	}))
}
