// Package gate holds resolved-but-unconfirmed operations, one slot per
// conversation, until the user explicitly confirms or cancels.
//
// The single-slot rule is a load-bearing invariant, not a UI affordance:
// even if a front end forgets to disable input while a confirmation is
// outstanding, Set refuses to park a second action. Conversations are fully
// partitioned — nothing is shared between conversation IDs.
package gate

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrAlreadyPending is returned by Set when the conversation already has a
// live pending action. A correct caller surfaces a "confirm or cancel
// first" reply; hitting this from library code is a programming defect.
var ErrAlreadyPending = errors.New("gate: an action is already pending for this conversation")

// ErrNothingPending is returned by Confirm when the conversation has no live
// pending action.
var ErrNothingPending = errors.New("gate: nothing pending for this conversation")

// DefaultTTL is how long a pending action stays live without a response.
// An expired action counts as absent so an abandoned confirmation cannot
// wedge the conversation.
const DefaultTTL = 5 * time.Minute

// PendingAction is one resolved operation awaiting confirmation.
type PendingAction struct {
	// Operation is the registry operation name.
	Operation string
	// Args holds the resolved parameter values.
	Args map[string]string
}

type slot struct {
	action    PendingAction
	expiresAt time.Time
}

// Gate is the per-conversation pending-action store. Safe for concurrent
// use; the check-then-clear transition inside Confirm is atomic, so two
// back-to-back confirmation signals cannot double-dispatch.
type Gate struct {
	mu    sync.Mutex
	slots map[string]*slot
	ttl   time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// New creates a Gate. ttl controls pending-action expiry; pass 0 to use
// DefaultTTL, or a negative value to disable expiry entirely.
func New(ttl time.Duration) *Gate {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Gate{
		slots: make(map[string]*slot),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Set parks an action for the conversation. Fails with ErrAlreadyPending if
// a live (unexpired) action is already parked.
func (g *Gate) Set(conversationID, operation string, args map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s := g.live(conversationID); s != nil {
		return fmt.Errorf("%w (operation %q)", ErrAlreadyPending, s.action.Operation)
	}

	copied := make(map[string]string, len(args))
	for k, v := range args {
		copied[k] = v
	}
	g.slots[conversationID] = &slot{
		action:    PendingAction{Operation: operation, Args: copied},
		expiresAt: g.deadline(),
	}
	return nil
}

// Confirm atomically returns and clears the conversation's pending action,
// or fails with ErrNothingPending.
func (g *Gate) Confirm(conversationID string) (PendingAction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.live(conversationID)
	if s == nil {
		return PendingAction{}, ErrNothingPending
	}
	delete(g.slots, conversationID)
	return s.action, nil
}

// Cancel clears the conversation's slot unconditionally. No-op when empty.
func (g *Gate) Cancel(conversationID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.slots, conversationID)
}

// Pending returns the live pending action without clearing it, for callers
// that need to re-render the confirmation prompt.
func (g *Gate) Pending(conversationID string) (PendingAction, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.live(conversationID)
	if s == nil {
		return PendingAction{}, false
	}
	return s.action, true
}

// live returns the conversation's slot if present and unexpired, reaping an
// expired one as a side effect. Must be called with mu held.
func (g *Gate) live(conversationID string) *slot {
	s, ok := g.slots[conversationID]
	if !ok {
		return nil
	}
	if !s.expiresAt.IsZero() && g.now().After(s.expiresAt) {
		delete(g.slots, conversationID)
		return nil
	}
	return s
}

// deadline computes the expiry for a freshly parked action. Zero time means
// no expiry.
func (g *Gate) deadline() time.Time {
	if g.ttl < 0 {
		return time.Time{}
	}
	return g.now().Add(g.ttl)
}
