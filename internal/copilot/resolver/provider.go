// Package resolver translates free-form user text into a structured intent
// against the operation registry.
//
// The resolver sits between the conversation surface and the dispatcher. Its
// sole responsibility is translation: build a prompt from the operation menu
// and recent history, ask the language oracle, and defensively parse the
// reply into a Resolution. The oracle only proposes operations; it never
// executes them, and every proposal still flows through the pending-action
// gate and the dispatcher's own validation.
//
// The resolver is a terminal error boundary: Resolve never returns an error.
// Oracle outages and malformed replies all degrade to a NotFound resolution
// with a conversational message.
package resolver

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by an Oracle when the upstream completion API
// cannot be reached or reports a server-side failure. The resolver converts
// it into a NotFound resolution; it never reaches callers of Resolve.
var ErrUnavailable = errors.New("resolver: language oracle unavailable")

// Oracle is the external text-completion service used to map free text onto
// a structured intent. Request and response are both opaque text; the
// resolver owns all prompt construction and reply parsing.
//
// Implementations must be safe for concurrent use. A single Resolve call
// performs exactly one Complete call — no retries.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Turn is one prior message of the conversation, injected into the prompt so
// the oracle has continuity across turns.
type Turn struct {
	// Role is "user" or "assistant".
	Role string
	// Content is the message text.
	Content string
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Oracle.
func (f OracleFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
