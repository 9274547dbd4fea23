package dispatch_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mstiles/copilot/internal/copilot/dispatch"
	"github.com/mstiles/copilot/internal/copilot/registry"
)

// newDispatcher builds a dispatcher over a registry with one recording
// handler, one failing handler, and one panicking handler.
func newDispatcher(t *testing.T, calls *int) *dispatch.Dispatcher {
	t.Helper()
	reg := registry.New()
	reg.MustRegister(registry.Descriptor{
		Name:        "process_sales_payment",
		Description: "Processes payments.",
		Params: []registry.Param{
			{Name: "sales_date", Description: "the day", IsDate: true},
		},
		Handler: func(_ context.Context, args map[string]string) (registry.Payload, error) {
			*calls++
			return registry.TextPayload("processed " + args["sales_date"]), nil
		},
	})
	reg.MustRegister(registry.Descriptor{
		Name:        "failing_op",
		Description: "Always fails.",
		Handler: func(context.Context, map[string]string) (registry.Payload, error) {
			*calls++
			return registry.Payload{}, errors.New("ledger unavailable")
		},
	})
	reg.MustRegister(registry.Descriptor{
		Name:        "panicking_op",
		Description: "Always panics.",
		Handler: func(context.Context, map[string]string) (registry.Payload, error) {
			*calls++
			panic("slice index out of range")
		},
	})
	return dispatch.New(reg)
}

func TestDispatchSuccess(t *testing.T) {
	var calls int
	d := newDispatcher(t, &calls)

	res := d.Dispatch(context.Background(), "process_sales_payment", map[string]string{"sales_date": "2026-08-01"})
	if res.Failed {
		t.Fatalf("unexpected failure: %q", res.ErrorText)
	}
	if res.Payload.Text != "processed 2026-08-01" {
		t.Errorf("Payload.Text = %q", res.Payload.Text)
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
}

// TestDispatchUnknownOperation verifies the registry re-check: an
// unregistered name fails without any handler invocation.
func TestDispatchUnknownOperation(t *testing.T) {
	var calls int
	d := newDispatcher(t, &calls)

	res := d.Dispatch(context.Background(), "delete_everything", nil)
	if !res.Failed {
		t.Fatal("expected failure for unknown operation")
	}
	if res.ErrorText != "Unknown tool" {
		t.Errorf("ErrorText = %q, want %q", res.ErrorText, "Unknown tool")
	}
	if calls != 0 {
		t.Errorf("a handler ran for an unknown operation")
	}
}

func TestDispatchMissingParameters(t *testing.T) {
	var calls int
	d := newDispatcher(t, &calls)

	res := d.Dispatch(context.Background(), "process_sales_payment", map[string]string{"sales_date": "  "})
	if !res.Failed {
		t.Fatal("expected failure for missing parameter")
	}
	if !strings.Contains(res.ErrorText, "sales_date") {
		t.Errorf("ErrorText %q does not name the missing parameter", res.ErrorText)
	}
	if calls != 0 {
		t.Error("handler ran despite missing parameters")
	}
}

func TestDispatchUnexpectedParameters(t *testing.T) {
	var calls int
	d := newDispatcher(t, &calls)

	res := d.Dispatch(context.Background(), "failing_op", map[string]string{"surprise": "1"})
	if !res.Failed {
		t.Fatal("expected failure for unexpected parameter")
	}
	if !strings.Contains(res.ErrorText, "surprise") {
		t.Errorf("ErrorText %q does not name the unexpected parameter", res.ErrorText)
	}
	if calls != 0 {
		t.Error("handler ran despite unexpected parameters")
	}
}

func TestDispatchHandlerError(t *testing.T) {
	var calls int
	d := newDispatcher(t, &calls)

	res := d.Dispatch(context.Background(), "failing_op", nil)
	if !res.Failed {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.ErrorText, "ledger unavailable") {
		t.Errorf("ErrorText %q does not carry the handler error", res.ErrorText)
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
}

// TestDispatchHandlerPanic verifies a panicking handler becomes a failure
// result rather than crashing the caller.
func TestDispatchHandlerPanic(t *testing.T) {
	var calls int
	d := newDispatcher(t, &calls)

	res := d.Dispatch(context.Background(), "panicking_op", nil)
	if !res.Failed {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.ErrorText, "slice index out of range") {
		t.Errorf("ErrorText %q does not carry the panic value", res.ErrorText)
	}
}
