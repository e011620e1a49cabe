// Package client calls a running relay's POST /chat endpoint.
package client

import (
	"context"
	"strings"

	"github.com/a-h/jsonapi"

	"github.com/tjfontaine/support-relay/internal/relay"
)

func New(baseURL string) Client {
	return Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

type Client struct {
	baseURL string
}

// Chat sends one message on behalf of sender. Non-2xx answers are returned
// as jsonapi.InvalidStatusError carrying the error envelope.
func (c Client) Chat(ctx context.Context, sender, text string) (resp []relay.ChatReply, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("chat").String()
	if err != nil {
		return resp, err
	}
	return jsonapi.Post[relay.ChatRequest, []relay.ChatReply](ctx, url, relay.ChatRequest{Sender: sender, Text: text})
}
