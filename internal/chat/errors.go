package chat

import (
	"errors"
	"fmt"
)

// ErrUnhandledResponse is the parent of every error caused by a model reply
// the relay cannot turn into a message for the user.
var ErrUnhandledResponse = errors.New("unhandled model response")

var (
	// ErrNoToolUse means the model stopped without calling a tool.
	ErrNoToolUse = fmt.Errorf("%w: no tool was called", ErrUnhandledResponse)

	// ErrUnknownTool means the model called a tool the relay does not offer.
	ErrUnknownTool = fmt.Errorf("%w: unknown tool", ErrUnhandledResponse)

	// ErrMalformedResponse means the reply claimed tool use but did not carry
	// a usable tool_use block.
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrUnhandledResponse)
)
