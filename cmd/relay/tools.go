package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/tjfontaine/support-relay/internal/tools"
)

type ToolsCommand struct{}

func (c ToolsCommand) Run(ctx context.Context) (err error) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tools.Tools())
}
