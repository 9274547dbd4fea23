// Package history persists conversations and their messages.
//
// A conversation is created lazily: saving a message with an empty
// conversation ID allocates a fresh one. The first user message in a
// conversation doubles as its title in listings.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a conversation ID does not exist.
var ErrNotFound = errors.New("history: conversation not found")

// Message is one turn of a conversation.
type Message struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`
	// Content is the turn text.
	Content string `json:"content"`
	// CreatedAt is when the turn was saved, UTC.
	CreatedAt time.Time `json:"created_at"`
}

// Summary is one conversation in a listing.
type Summary struct {
	// ID is the conversation ID.
	ID string `json:"id"`
	// Title is the first user message of the conversation, or "(empty)" when
	// the conversation holds no user turns.
	Title string `json:"title"`
	// UpdatedAt is when the conversation last received a message, UTC.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the conversation persistence contract.
type Store interface {
	// SaveMessage appends a turn. An empty conversationID allocates a new
	// conversation; the (possibly new) conversation ID is returned.
	SaveMessage(ctx context.Context, conversationID, role, content string) (string, error)
	// Messages returns a conversation's turns, oldest first. Fails with
	// ErrNotFound for an unknown conversation.
	Messages(ctx context.Context, conversationID string) ([]Message, error)
	// Summaries lists all conversations, most recently updated first.
	Summaries(ctx context.Context) ([]Summary, error)
	// Delete removes one conversation and its messages. Deleting an unknown
	// conversation is a no-op.
	Delete(ctx context.Context, conversationID string) error
	// ClearAll removes every conversation.
	ClearAll(ctx context.Context) error
}

const untitled = "(empty)"
