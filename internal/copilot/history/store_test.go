package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mstiles/copilot/internal/copilot/history"
)

// newTestStore opens a temp-dir SQLite store, cleaned up with the test.
func newTestStore(t *testing.T) history.Store {
	t.Helper()
	s, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history-test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// stores runs a subtest against both implementations so they stay
// behaviorally interchangeable.
func stores(t *testing.T, run func(t *testing.T, s history.Store)) {
	t.Helper()
	t.Run("sqlite", func(t *testing.T) { run(t, newTestStore(t)) })
	t.Run("memory", func(t *testing.T) { run(t, history.NewMemoryStore()) })
}

func TestSaveMessageAllocatesConversation(t *testing.T) {
	stores(t, func(t *testing.T, s history.Store) {
		ctx := context.Background()

		id, err := s.SaveMessage(ctx, "", "user", "hello")
		if err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
		if id == "" {
			t.Fatal("expected a fresh conversation ID")
		}

		again, err := s.SaveMessage(ctx, id, "assistant", "hi there")
		if err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
		if again != id {
			t.Errorf("conversation ID changed: %q vs %q", again, id)
		}

		messages, err := s.Messages(ctx, id)
		if err != nil {
			t.Fatalf("Messages: %v", err)
		}
		if len(messages) != 2 {
			t.Fatalf("got %d messages, want 2", len(messages))
		}
		if messages[0].Role != "user" || messages[0].Content != "hello" {
			t.Errorf("first message = %+v", messages[0])
		}
		if messages[1].Role != "assistant" || messages[1].Content != "hi there" {
			t.Errorf("second message = %+v", messages[1])
		}
	})
}

func TestSaveMessageUnknownConversation(t *testing.T) {
	stores(t, func(t *testing.T, s history.Store) {
		_, err := s.SaveMessage(context.Background(), "no-such-id", "user", "hello")
		if !errors.Is(err, history.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMessagesUnknownConversation(t *testing.T) {
	stores(t, func(t *testing.T, s history.Store) {
		_, err := s.Messages(context.Background(), "no-such-id")
		if !errors.Is(err, history.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

// TestSummariesTitleIsFirstUserMessage also covers the newest-first listing
// order.
func TestSummariesTitleIsFirstUserMessage(t *testing.T) {
	stores(t, func(t *testing.T, s history.Store) {
		ctx := context.Background()

		first, err := s.SaveMessage(ctx, "", "user", "reconcile last week")
		if err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
		if _, err := s.SaveMessage(ctx, first, "assistant", "Should I proceed?"); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}

		second, err := s.SaveMessage(ctx, "", "assistant", "Welcome back!")
		if err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}

		summaries, err := s.Summaries(ctx)
		if err != nil {
			t.Fatalf("Summaries: %v", err)
		}
		if len(summaries) != 2 {
			t.Fatalf("got %d summaries, want 2", len(summaries))
		}

		byID := map[string]history.Summary{}
		for _, sum := range summaries {
			byID[sum.ID] = sum
		}
		if got := byID[first].Title; got != "reconcile last week" {
			t.Errorf("title = %q", got)
		}
		if got := byID[second].Title; got != "(empty)" {
			t.Errorf("user-less conversation title = %q", got)
		}
	})
}

func TestDeleteConversation(t *testing.T) {
	stores(t, func(t *testing.T, s history.Store) {
		ctx := context.Background()

		id, err := s.SaveMessage(ctx, "", "user", "hello")
		if err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
		if err := s.Delete(ctx, id); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Messages(ctx, id); !errors.Is(err, history.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}

		// Deleting again is a no-op.
		if err := s.Delete(ctx, id); err != nil {
			t.Fatalf("second Delete: %v", err)
		}
	})
}

func TestClearAll(t *testing.T) {
	stores(t, func(t *testing.T, s history.Store) {
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			if _, err := s.SaveMessage(ctx, "", "user", "hello"); err != nil {
				t.Fatalf("SaveMessage: %v", err)
			}
		}
		if err := s.ClearAll(ctx); err != nil {
			t.Fatalf("ClearAll: %v", err)
		}
		summaries, err := s.Summaries(ctx)
		if err != nil {
			t.Fatalf("Summaries: %v", err)
		}
		if len(summaries) != 0 {
			t.Fatalf("got %d summaries after ClearAll", len(summaries))
		}
	})
}
