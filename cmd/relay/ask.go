package main

import (
	"context"
	"fmt"

	"github.com/tjfontaine/support-relay/internal/client"
)

type AskCommand struct {
	RelayURL string `help:"The URL of the relay." env:"RELAY_URL" default:"http://localhost:8088"`
	Sender   string `help:"The sender id to send as." default:"cli"`
	Text     string `arg:"" help:"The message to send."`
}

func (c AskCommand) Run(ctx context.Context) (err error) {
	replies, err := client.New(c.RelayURL).Chat(ctx, c.Sender, c.Text)
	if err != nil {
		return fmt.Errorf("failed to chat: %w", err)
	}
	for _, r := range replies {
		fmt.Printf("%s: %s\n", r.RecipientID, r.Text)
	}
	return nil
}
