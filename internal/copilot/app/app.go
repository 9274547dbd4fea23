// Package app wires the conversational pipeline: resolver, pending-action
// gate, dispatcher, and conversation history, one pass per user turn.
//
// The flow per conversation is strict: free text is resolved into a proposed
// operation and parked in the gate; only an explicit confirmation releases
// it to the dispatcher; a cancellation drops it. While an action is parked,
// new free text is refused so the pending proposal cannot drift out from
// under the user.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mstiles/copilot/common/trace"
	"github.com/mstiles/copilot/internal/copilot/dispatch"
	"github.com/mstiles/copilot/internal/copilot/gate"
	"github.com/mstiles/copilot/internal/copilot/history"
	"github.com/mstiles/copilot/internal/copilot/registry"
	"github.com/mstiles/copilot/internal/copilot/resolver"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"

	cancelledMessage      = "Action cancelled."
	nothingPendingMessage = "There is no action awaiting confirmation."
)

// Reply is what the assistant says back after one user input.
type Reply struct {
	// ConversationID identifies the conversation, freshly allocated when the
	// input started one.
	ConversationID string
	// Text is the assistant's message.
	Text string
	// Table carries tabular results, when the executed operation produced
	// them.
	Table *registry.Table
	// AwaitingConfirmation is set when an operation is parked in the gate
	// and the next input must confirm or cancel.
	AwaitingConfirmation bool
}

// App is the conversation orchestrator. Safe for concurrent use across
// conversations.
type App struct {
	resolver   *resolver.Resolver
	gate       *gate.Gate
	dispatcher *dispatch.Dispatcher
	store      history.Store
}

// New assembles an App from its four collaborators.
func New(res *resolver.Resolver, g *gate.Gate, d *dispatch.Dispatcher, store history.Store) *App {
	return &App{resolver: res, gate: g, dispatcher: d, store: store}
}

// HandleText processes one free-text user input. conversationID may be empty
// to start a new conversation.
//
// If the conversation has a pending action, the text is not resolved; the
// reply reminds the user to confirm or cancel first.
func (a *App) HandleText(ctx context.Context, conversationID, text string) (*Reply, error) {
	ctx = ensureTrace(ctx)

	conversationID, err := a.store.SaveMessage(ctx, conversationID, roleUser, text)
	if err != nil {
		return nil, fmt.Errorf("app: save user message: %w", err)
	}

	if pending, ok := a.gate.Pending(conversationID); ok {
		msg := fmt.Sprintf(
			"The action **%s** is still awaiting your confirmation. Please answer yes to run it or no to cancel before asking for anything else.",
			pending.Operation)
		return a.respond(ctx, conversationID, msg, nil, true)
	}

	turns, err := a.recentTurns(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	res := a.resolver.Resolve(ctx, text, turns)
	if !res.Found {
		return a.respond(ctx, conversationID, res.Message, nil, false)
	}

	if err := a.gate.Set(conversationID, res.Operation, res.Args); err != nil {
		// Lost a race with a concurrent turn on the same conversation.
		if errors.Is(err, gate.ErrAlreadyPending) {
			return a.respond(ctx, conversationID,
				"Another action is already awaiting your confirmation. Please answer yes or no first.", nil, true)
		}
		return nil, fmt.Errorf("app: park pending action: %w", err)
	}

	slog.Info("app: action proposed",
		"trace_id", trace.FromContext(ctx),
		"conversation_id", conversationID,
		"operation", res.Operation,
	)
	return a.respond(ctx, conversationID, res.Message, nil, true)
}

// Confirm releases the conversation's pending action to the dispatcher.
// userText is the literal confirmation input, recorded in the transcript.
func (a *App) Confirm(ctx context.Context, conversationID, userText string) (*Reply, error) {
	ctx = ensureTrace(ctx)

	conversationID, err := a.store.SaveMessage(ctx, conversationID, roleUser, userText)
	if err != nil {
		return nil, fmt.Errorf("app: save user message: %w", err)
	}

	pending, err := a.gate.Confirm(conversationID)
	if err != nil {
		if errors.Is(err, gate.ErrNothingPending) {
			return a.respond(ctx, conversationID, nothingPendingMessage, nil, false)
		}
		return nil, fmt.Errorf("app: release pending action: %w", err)
	}

	result := a.dispatcher.Dispatch(ctx, pending.Operation, pending.Args)
	if result.Failed {
		return a.respond(ctx, conversationID, result.ErrorText, nil, false)
	}

	text := result.Payload.Text
	table := result.Payload.Table
	if text == "" && table == nil {
		text = fmt.Sprintf("The action %s completed.", pending.Operation)
	}
	return a.respond(ctx, conversationID, text, table, false)
}

// Cancel drops the conversation's pending action, if any. userText is the
// literal cancellation input, recorded in the transcript.
func (a *App) Cancel(ctx context.Context, conversationID, userText string) (*Reply, error) {
	ctx = ensureTrace(ctx)

	conversationID, err := a.store.SaveMessage(ctx, conversationID, roleUser, userText)
	if err != nil {
		return nil, fmt.Errorf("app: save user message: %w", err)
	}

	a.gate.Cancel(conversationID)
	return a.respond(ctx, conversationID, cancelledMessage, nil, false)
}

// Summaries lists all conversations, most recently updated first.
func (a *App) Summaries(ctx context.Context) ([]history.Summary, error) {
	return a.store.Summaries(ctx)
}

// Messages returns a conversation's transcript, oldest first.
func (a *App) Messages(ctx context.Context, conversationID string) ([]history.Message, error) {
	return a.store.Messages(ctx, conversationID)
}

// Delete removes one conversation and clears any action it had pending.
func (a *App) Delete(ctx context.Context, conversationID string) error {
	a.gate.Cancel(conversationID)
	return a.store.Delete(ctx, conversationID)
}

// ClearAll removes every conversation.
func (a *App) ClearAll(ctx context.Context) error {
	return a.store.ClearAll(ctx)
}

// respond persists the assistant turn and builds the Reply. Tables are
// persisted as their text rendering's companion; the transcript stores only
// the message text.
func (a *App) respond(ctx context.Context, conversationID, text string, table *registry.Table, awaiting bool) (*Reply, error) {
	if _, err := a.store.SaveMessage(ctx, conversationID, roleAssistant, text); err != nil {
		return nil, fmt.Errorf("app: save assistant message: %w", err)
	}
	return &Reply{
		ConversationID:       conversationID,
		Text:                 text,
		Table:                table,
		AwaitingConfirmation: awaiting,
	}, nil
}

// recentTurns loads the transcript as resolver turns, excluding the final
// message — the current user input, which the prompt carries separately.
// The resolver applies its own truncation.
func (a *App) recentTurns(ctx context.Context, conversationID string) ([]resolver.Turn, error) {
	messages, err := a.store.Messages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("app: load history: %w", err)
	}
	if len(messages) > 0 {
		messages = messages[:len(messages)-1]
	}
	turns := make([]resolver.Turn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, resolver.Turn{Role: m.Role, Content: m.Content})
	}
	return turns, nil
}

// ensureTrace attaches a trace ID when the caller supplied none.
func ensureTrace(ctx context.Context) context.Context {
	if trace.FromContext(ctx) != "" {
		return ctx
	}
	return trace.WithTraceID(ctx, trace.GenerateID())
}
