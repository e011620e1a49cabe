// Package anthropic provides the Messages API types and HTTP client the relay
// uses to talk to the hosted model.
package anthropic

import (
	"encoding/json"
	"fmt"
)

// RoleUser is the only role the relay sends.
const RoleUser = "user"

// Content block and stop reason values.
const (
	ContentTypeText    = "text"
	ContentTypeToolUse = "tool_use"

	StopReasonToolUse = "tool_use"
	StopReasonEndTurn = "end_turn"

	// CacheTypeEphemeral marks a prompt segment for short-lived provider caching.
	CacheTypeEphemeral = "ephemeral"

	// ToolChoiceAny forces the model to call one of the supplied tools.
	ToolChoiceAny = "any"
)

// MessagesRequest represents an Anthropic Messages API request.
type MessagesRequest struct {
	Model      string         `json:"model"`
	Messages   []Message      `json:"messages"`
	MaxTokens  int            `json:"max_tokens"`
	System     SystemMessages `json:"system,omitempty"`
	Tools      []Tool         `json:"tools,omitempty"`
	ToolChoice *ToolChoice    `json:"tool_choice,omitempty"`
}

// Message represents a message in the conversation.
type Message struct {
	Role    string       `json:"role"`
	Content ContentBlock `json:"content"`
}

// NewTextMessage builds a single-part text message.
func NewTextMessage(role, text string) Message {
	return Message{
		Role:    role,
		Content: ContentBlock{{Type: ContentTypeText, Text: text}},
	}
}

// ContentBlock can be a string or array of content blocks.
type ContentBlock []ContentPart

// MarshalJSON sends a lone text part in the string shorthand.
func (c ContentBlock) MarshalJSON() ([]byte, error) {
	if len(c) == 1 && c[0].Type == ContentTypeText {
		return json.Marshal(c[0].Text)
	}
	return json.Marshal([]ContentPart(c))
}

// String returns the concatenated text content.
func (c ContentBlock) String() string {
	var result string
	for _, part := range c {
		if part.Type == ContentTypeText || part.Type == "" {
			result += part.Text
		}
	}
	return result
}

// ContentPart represents a single content part in a message.
type ContentPart struct {
	Type string `json:"type"` // "text", "tool_use"
	Text string `json:"text,omitempty"`

	// For tool_use blocks
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
}

// SystemMessages represents the system prompt (can be string or array).
type SystemMessages []SystemBlock

// MarshalJSON keeps an uncached single text block as a plain string, which is
// the shape the non-caching endpoint expects. Anything else is sent as blocks.
func (s SystemMessages) MarshalJSON() ([]byte, error) {
	if len(s) == 1 && s[0].Type == ContentTypeText && s[0].CacheControl == nil {
		return json.Marshal(s[0].Text)
	}
	return json.Marshal([]SystemBlock(s))
}

// SystemBlock represents a system message block.
type SystemBlock struct {
	Type         string `json:"type"`
	Text         string `json:"text,omitempty"`
	CacheControl *Cache `json:"cache_control,omitempty"`
}

// Cache represents cache control settings.
type Cache struct {
	Type string `json:"type"` // "ephemeral"
}

// Tool represents a tool that the model can use.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"input_schema"`
}

// ToolChoice represents how the model should use tools.
type ToolChoice struct {
	Type string `json:"type"` // "auto", "any", "tool"
	Name string `json:"name,omitempty"`
}

// MessagesResponse represents an Anthropic Messages API response.
type MessagesResponse struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Role         string            `json:"role"`
	Content      []ResponseContent `json:"content"`
	Model        string            `json:"model"`
	StopReason   string            `json:"stop_reason"`
	StopSequence *string           `json:"stop_sequence,omitempty"`
	Usage        MessagesUsage     `json:"usage"`
}

// LastContent returns the final content block of the response, if any.
func (r *MessagesResponse) LastContent() (ResponseContent, bool) {
	if r == nil || len(r.Content) == 0 {
		return ResponseContent{}, false
	}
	return r.Content[len(r.Content)-1], true
}

// ResponseContent represents content in a response.
type ResponseContent struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`
}

// MessagesUsage represents token usage in the response.
type MessagesUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// ErrorResponse represents an Anthropic API error.
type ErrorResponse struct {
	Type  string    `json:"type"`
	Error *APIError `json:"error"`
}

// APIError contains error details.
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`

	// StatusCode is the HTTP status the upstream answered with.
	StatusCode int `json:"-"`
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ParseErrorResponse attempts to parse an error response from JSON.
func ParseErrorResponse(data []byte) (*APIError, error) {
	var errResp ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		return nil, err
	}
	if errResp.Error == nil {
		return nil, nil
	}
	return errResp.Error, nil
}
