package chat

import (
	"fmt"

	"github.com/tjfontaine/support-relay/internal/api/anthropic"
	"github.com/tjfontaine/support-relay/internal/tools"
)

// Outcome is the classified shape of a model reply: NoToolUse, ToolUse or
// MalformedResponse.
type Outcome interface {
	outcome()
}

// NoToolUse is a reply that stopped for a reason other than tool use.
type NoToolUse struct {
	StopReason string
}

// ToolUse is a reply whose last block asks for a tool.
type ToolUse struct {
	ID    string
	Name  string
	Input map[string]any
}

// MalformedResponse is a tool_use reply without a usable tool_use block.
type MalformedResponse struct {
	Reason string
}

func (NoToolUse) outcome()         {}
func (ToolUse) outcome()           {}
func (MalformedResponse) outcome() {}

// Classify inspects the stop reason and the last content block only.
func Classify(resp *anthropic.MessagesResponse) Outcome {
	if resp == nil {
		return MalformedResponse{Reason: "empty response"}
	}
	if resp.StopReason != anthropic.StopReasonToolUse {
		return NoToolUse{StopReason: resp.StopReason}
	}

	last, ok := resp.LastContent()
	if !ok {
		return MalformedResponse{Reason: "no content blocks"}
	}
	if last.Type != anthropic.ContentTypeToolUse {
		return MalformedResponse{Reason: fmt.Sprintf("last content block is %q", last.Type)}
	}

	input, ok := last.Input.(map[string]any)
	if !ok && last.Input != nil {
		return MalformedResponse{Reason: fmt.Sprintf("tool input is %T", last.Input)}
	}
	return ToolUse{ID: last.ID, Name: last.Name, Input: input}
}

// ToolCall is one of SendText, CustomerInfo or WebSearch.
type ToolCall interface {
	ToolName() string
	toolCall()
}

// SendText delivers Text to the user as is.
type SendText struct {
	Text string
}

// CustomerInfo looks up the purchases of the customer with Email.
type CustomerInfo struct {
	Email string
}

// WebSearch searches the web for Topic.
type WebSearch struct {
	Topic string
}

func (SendText) ToolName() string     { return tools.NameSendText }
func (CustomerInfo) ToolName() string { return tools.NameCustomerInfo }
func (WebSearch) ToolName() string    { return tools.NameWebSearch }

func (SendText) toolCall()     {}
func (CustomerInfo) toolCall() {}
func (WebSearch) toolCall()    {}

// Decode turns a tool request into a typed call. The single required field
// of each tool must be present and a string.
func Decode(use ToolUse) (ToolCall, error) {
	switch use.Name {
	case tools.NameSendText:
		text, err := stringField(use, "text")
		if err != nil {
			return nil, err
		}
		return SendText{Text: text}, nil
	case tools.NameCustomerInfo:
		email, err := stringField(use, "email")
		if err != nil {
			return nil, err
		}
		return CustomerInfo{Email: email}, nil
	case tools.NameWebSearch:
		topic, err := stringField(use, "topic")
		if err != nil {
			return nil, err
		}
		return WebSearch{Topic: topic}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, use.Name)
	}
}

func stringField(use ToolUse, field string) (string, error) {
	v, ok := use.Input[field]
	if !ok {
		return "", fmt.Errorf("%w: %s input has no %q", ErrMalformedResponse, use.Name, field)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s input %q is %T", ErrMalformedResponse, use.Name, field, v)
	}
	return s, nil
}
