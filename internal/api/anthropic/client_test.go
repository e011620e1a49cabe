package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}

		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected x-api-key header to be 'test-key', got %q", r.Header.Get("x-api-key"))
		}
		if got := r.Header.Get("anthropic-version"); got != defaultVersion {
			t.Errorf("anthropic-version = %q, want %q", got, defaultVersion)
		}
		if r.Header.Get("anthropic-beta") != "" {
			t.Errorf("expected no anthropic-beta header, got %q", r.Header.Get("anthropic-beta"))
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{
  "id": "msg_123",
  "type": "message",
  "role": "assistant",
  "content": [
    {"type": "text", "text": "Let me check."},
    {"type": "tool_use", "id": "toolu_1", "name": "get_customer_info", "input": {"email": "a@b.c"}}
  ],
  "model": "claude-3-haiku-20240307",
  "stop_reason": "tool_use",
  "usage": {"input_tokens": 10, "output_tokens": 5}
}`)
	}))
	defer ts.Close()

	c := NewClient("test-key", WithBaseURL(ts.URL+"/"))

	resp, err := c.CreateMessage(context.Background(), &MessagesRequest{
		Model:     "claude-3-haiku-20240307",
		Messages:  []Message{NewTextMessage(RoleUser, "Hello")},
		MaxTokens: 100,
	}, nil)
	if err != nil {
		t.Fatalf("CreateMessage returned error: %v", err)
	}

	if resp.StopReason != StopReasonToolUse {
		t.Errorf("unexpected stop reason: %s", resp.StopReason)
	}
	last, ok := resp.LastContent()
	if !ok {
		t.Fatal("expected a last content block")
	}
	if last.Type != ContentTypeToolUse || last.Name != "get_customer_info" {
		t.Errorf("unexpected last block: %+v", last)
	}
	input, ok := last.Input.(map[string]any)
	if !ok || input["email"] != "a@b.c" {
		t.Errorf("unexpected tool input: %#v", last.Input)
	}
}

func TestCreateMessage_BetaHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("anthropic-beta"); got != PromptCachingBeta {
			t.Errorf("anthropic-beta = %q, want %q", got, PromptCachingBeta)
		}
		if got := r.Header.Get("User-Agent"); got != "relay-test/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"id":"msg_1","type":"message","role":"assistant","content":[],"stop_reason":"end_turn"}`)
	}))
	defer ts.Close()

	c := NewClient("test-key", WithBaseURL(ts.URL))
	_, err := c.CreateMessage(context.Background(), &MessagesRequest{Model: "m", MaxTokens: 1}, &RequestOptions{
		UserAgent:    "relay-test/1.0",
		BetaFeatures: PromptCachingBeta,
	})
	if err != nil {
		t.Fatalf("CreateMessage returned error: %v", err)
	}
}

func TestCreateMessage_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprintln(w, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	}))
	defer ts.Close()

	c := NewClient("test-key", WithBaseURL(ts.URL))
	_, err := c.CreateMessage(context.Background(), &MessagesRequest{Model: "m", MaxTokens: 1}, nil)
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if apiErr.Type != "rate_limit_error" || apiErr.Message != "slow down" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestCreateMessage_UnparsableError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream down")
	}))
	defer ts.Close()

	c := NewClient("test-key", WithBaseURL(ts.URL))
	_, err := c.CreateMessage(context.Background(), &MessagesRequest{Model: "m", MaxTokens: 1}, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("did not expect *APIError for a plain text body")
	}
}

func TestSystemMessages_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   SystemMessages
		want string
	}{
		{
			name: "plain text collapses to string",
			in:   SystemMessages{{Type: "text", Text: "be nice"}},
			want: `"be nice"`,
		},
		{
			name: "cached block stays a list",
			in:   SystemMessages{{Type: "text", Text: "be nice", CacheControl: &Cache{Type: CacheTypeEphemeral}}},
			want: `[{"type":"text","text":"be nice","cache_control":{"type":"ephemeral"}}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMessagesRequest_OmitsEmptySystem(t *testing.T) {
	body, err := json.Marshal(MessagesRequest{
		Model:      "m",
		Messages:   []Message{NewTextMessage(RoleUser, "hi")},
		MaxTokens:  1000,
		ToolChoice: &ToolChoice{Type: ToolChoiceAny},
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := decoded["system"]; ok {
		t.Errorf("expected system to be omitted, got %s", body)
	}
	msgs := decoded["messages"].([]any)
	if content := msgs[0].(map[string]any)["content"]; content != "hi" {
		t.Errorf("content = %#v, want the string shorthand", content)
	}
}

func TestContentBlock_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   ContentBlock
		want string
	}{
		{
			name: "single text part uses the string shorthand",
			in:   ContentBlock{{Type: ContentTypeText, Text: "hi"}},
			want: `"hi"`,
		},
		{
			name: "tool use part carries only its own fields",
			in: ContentBlock{
				{Type: ContentTypeText, Text: "checking"},
				{Type: ContentTypeToolUse, ID: "toolu_1", Name: "web_search", Input: map[string]any{"topic": "mouse"}},
			},
			want: `[{"type":"text","text":"checking"},{"type":"tool_use","id":"toolu_1","name":"web_search","input":{"topic":"mouse"}}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}
