package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-process Store used when no database is configured.
// Conversations vanish on restart. Safe for concurrent use.
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[string]*memoryConversation

	// now is injectable for tests.
	now func() time.Time
}

type memoryConversation struct {
	messages  []Message
	updatedAt time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*memoryConversation),
		now:           time.Now,
	}
}

// SaveMessage implements Store.
func (m *MemoryStore) SaveMessage(_ context.Context, conversationID, role, content string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	if conversationID == "" {
		conversationID = uuid.NewString()
		m.conversations[conversationID] = &memoryConversation{updatedAt: now}
	}
	conv, ok := m.conversations[conversationID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, conversationID)
	}

	conv.messages = append(conv.messages, Message{Role: role, Content: content, CreatedAt: now})
	conv.updatedAt = now
	return conversationID, nil
}

// Messages implements Store.
func (m *MemoryStore) Messages(_ context.Context, conversationID string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[conversationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, conversationID)
	}
	return append([]Message(nil), conv.messages...), nil
}

// Summaries implements Store, most recently updated first.
func (m *MemoryStore) Summaries(_ context.Context) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Summary, 0, len(m.conversations))
	for id, conv := range m.conversations {
		title := untitled
		for _, msg := range conv.messages {
			if msg.Role == "user" {
				title = msg.Content
				break
			}
		}
		out = append(out, Summary{ID: id, Title: title, UpdatedAt: conv.updatedAt})
	}

	// Newest first, ID as tiebreak for determinism.
	for i := 1; i < len(out); i++ {
		key := out[i]
		j := i - 1
		for j >= 0 && less(out[j], key) {
			out[j+1] = out[j]
			j--
		}
		out[j+1] = key
	}
	return out, nil
}

func less(a, b Summary) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.Before(b.UpdatedAt)
	}
	return a.ID > b.ID
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, conversationID)
	return nil
}

// ClearAll implements Store.
func (m *MemoryStore) ClearAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversations = make(map[string]*memoryConversation)
	return nil
}

var _ Store = (*MemoryStore)(nil)
