// Package chat sends a prompt to the model, forces it to pick a tool and runs
// the tool it picked.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/support-relay/internal/api/anthropic"
	"github.com/tjfontaine/support-relay/internal/config"
	"github.com/tjfontaine/support-relay/internal/prompt"
	"github.com/tjfontaine/support-relay/internal/tools"
)

const defaultMaxTokens = 1000

// MessageCreator is the part of the Messages API client the orchestrator uses.
type MessageCreator interface {
	CreateMessage(ctx context.Context, req *anthropic.MessagesRequest, opts *anthropic.RequestOptions) (*anthropic.MessagesResponse, error)
}

// WebSearcher runs the web_search tool.
type WebSearcher interface {
	WebSearch(ctx context.Context, topic string) (string, error)
}

// Orchestrator is stateless between calls and safe for concurrent use.
type Orchestrator struct {
	model     string
	maxTokens int
	caching   bool

	creator  MessageCreator
	searcher WebSearcher
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates an Orchestrator. A nil logger discards output.
func New(cfg config.AnthropicConfig, creator MessageCreator, searcher WebSearcher, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Orchestrator{
		model:     cfg.Model,
		maxTokens: maxTokens,
		caching:   cfg.EnablePromptCaching,
		creator:   creator,
		searcher:  searcher,
		logger:    logger,
		tracer:    otel.Tracer("support-relay/chat"),
	}
}

// Request builds the Messages API call for a conversation. The caching variant
// opts into the prompt caching beta.
func (o *Orchestrator) Request(system prompt.System, messages []anthropic.Message) (*anthropic.MessagesRequest, *anthropic.RequestOptions) {
	req := &anthropic.MessagesRequest{
		Model:      o.model,
		Messages:   messages,
		MaxTokens:  o.maxTokens,
		System:     system.Blocks(),
		Tools:      tools.Tools(),
		ToolChoice: &anthropic.ToolChoice{Type: anthropic.ToolChoiceAny},
	}

	var opts *anthropic.RequestOptions
	if o.caching {
		opts = &anthropic.RequestOptions{BetaFeatures: anthropic.PromptCachingBeta}
	}
	return req, opts
}

// Chat sends the conversation and returns the text produced by the tool the
// model called. Replies that cannot be acted on return an error wrapping
// ErrUnhandledResponse.
func (o *Orchestrator) Chat(ctx context.Context, system prompt.System, messages []anthropic.Message) (string, error) {
	ctx, span := o.tracer.Start(ctx, "chat.Chat", trace.WithAttributes(
		attribute.String("gen_ai.request.model", o.model),
		attribute.Bool("relay.prompt_caching", o.caching),
	))
	defer span.End()

	reply, err := o.chat(ctx, span, system, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return reply, nil
}

func (o *Orchestrator) chat(ctx context.Context, span trace.Span, system prompt.System, messages []anthropic.Message) (string, error) {
	o.logger.InfoContext(ctx, "chatting with the user", slog.Bool("prompt_caching", o.caching))

	req, opts := o.Request(system, messages)
	resp, err := o.creator.CreateMessage(ctx, req, opts)
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}

	o.logger.DebugContext(ctx, "model replied",
		slog.String("id", resp.ID),
		slog.String("stop_reason", resp.StopReason),
		slog.Int("input_tokens", resp.Usage.InputTokens),
		slog.Int("output_tokens", resp.Usage.OutputTokens),
		slog.Int("cache_creation_input_tokens", resp.Usage.CacheCreationInputTokens),
		slog.Int("cache_read_input_tokens", resp.Usage.CacheReadInputTokens))

	var use ToolUse
	switch outcome := Classify(resp).(type) {
	case NoToolUse:
		o.logger.WarnContext(ctx, "no tool was called", slog.String("stop_reason", outcome.StopReason))
		return "", fmt.Errorf("%w (stop_reason %q)", ErrNoToolUse, outcome.StopReason)
	case MalformedResponse:
		o.logger.WarnContext(ctx, "malformed tool use", slog.String("reason", outcome.Reason))
		return "", fmt.Errorf("%w: %s", ErrMalformedResponse, outcome.Reason)
	case ToolUse:
		use = outcome
	default:
		return "", fmt.Errorf("%w: unexpected outcome %T", ErrMalformedResponse, outcome)
	}

	span.SetAttributes(attribute.String("relay.tool.name", use.Name))
	o.logger.InfoContext(ctx, "model wants to call a tool", slog.String("tool", use.Name))

	call, err := Decode(use)
	if err != nil {
		o.logger.WarnContext(ctx, "cannot run tool", slog.String("tool", use.Name), slog.String("error", err.Error()))
		return "", err
	}

	return o.dispatch(ctx, call)
}

func (o *Orchestrator) dispatch(ctx context.Context, call ToolCall) (string, error) {
	switch c := call.(type) {
	case SendText:
		return tools.SendTextToUser(c.Text), nil
	case CustomerInfo:
		return tools.GetCustomerInfo(ctx, o.logger, c.Email), nil
	case WebSearch:
		return o.searcher.WebSearch(ctx, c.Topic)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownTool, call)
	}
}
