package registry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mstiles/copilot/internal/copilot/registry"
)

// noopHandler is a handler that succeeds with empty output.
func noopHandler(context.Context, map[string]string) (registry.Payload, error) {
	return registry.Payload{}, nil
}

// newCatalog builds a registry with a parameterless and a two-parameter
// operation.
func newCatalog(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	reg.MustRegister(registry.Descriptor{
		Name:        "check_recovery_status",
		Description: "Shows recovery status.",
		Handler:     noopHandler,
	})
	reg.MustRegister(registry.Descriptor{
		Name:        "reconcile_sap_vs_es_sales",
		Description: "Reconciles SAP against ES.",
		Params: []registry.Param{
			{Name: "start_date", Description: "first day", IsDate: true},
			{Name: "end_date", Description: "last day", IsDate: true},
		},
		Handler: noopHandler,
	})
	return reg
}

func TestRegisterDuplicateName(t *testing.T) {
	reg := newCatalog(t)
	err := reg.Register(registry.Descriptor{
		Name:        "check_recovery_status",
		Description: "duplicate",
		Handler:     noopHandler,
	})
	if !errors.Is(err, registry.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestRegisterRejectsDuplicateParams(t *testing.T) {
	reg := registry.New()
	err := reg.Register(registry.Descriptor{
		Name:        "broken",
		Description: "duplicate parameter names",
		Params: []registry.Param{
			{Name: "date", Description: "one"},
			{Name: "date", Description: "two"},
		},
		Handler: noopHandler,
	})
	if err == nil {
		t.Fatal("expected an error for duplicate parameter names")
	}
}

func TestRegisterRejectsNilHandler(t *testing.T) {
	reg := registry.New()
	if err := reg.Register(registry.Descriptor{Name: "no_handler"}); err == nil {
		t.Fatal("expected an error for nil handler")
	}
}

func TestLookupUnknown(t *testing.T) {
	reg := newCatalog(t)
	if _, err := reg.Lookup("does_not_exist"); !errors.Is(err, registry.ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

// TestDescribeMentionsEverythingOnce verifies each operation and parameter
// appears exactly once in the rendered menu.
func TestDescribeMentionsEverythingOnce(t *testing.T) {
	reg := newCatalog(t)
	menu := reg.Menu()

	for _, want := range []string{"check_recovery_status", "reconcile_sap_vs_es_sales", "start_date", "end_date"} {
		if got := strings.Count(menu, want); got != 1 {
			t.Errorf("menu mentions %q %d times, want 1\nmenu:\n%s", want, got, menu)
		}
	}
	if !strings.Contains(menu, "YYYY-MM-DD") {
		t.Error("menu does not annotate date parameters with the expected format")
	}
	if !strings.Contains(menu, "Takes no parameters.") {
		t.Error("menu does not mark the parameterless operation")
	}
}

// TestDescribeRestartable verifies two iterations yield identical lines and
// that early termination does not poison later passes.
func TestDescribeRestartable(t *testing.T) {
	reg := newCatalog(t)

	collect := func() []string {
		var lines []string
		for line := range reg.Describe() {
			lines = append(lines, line)
		}
		return lines
	}

	first := collect()

	// Break out of a pass early, then iterate again in full.
	for range reg.Describe() {
		break
	}
	second := collect()

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 lines per pass, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("line %d differs between passes:\n%q\n%q", i, first[i], second[i])
		}
	}
}

func TestMenuEmptyRegistry(t *testing.T) {
	reg := registry.New()
	if got := reg.Menu(); got != "(no operations registered)" {
		t.Fatalf("empty menu = %q", got)
	}
}

func TestErrorTable(t *testing.T) {
	table := registry.ErrorTable("boom")
	msg, ok := table.ErrorText()
	if !ok || msg != "boom" {
		t.Fatalf("ErrorText = %q, %v", msg, ok)
	}

	plain := &registry.Table{Columns: []string{"A"}, Rows: []registry.Row{{"A": "1"}}}
	if _, ok := plain.ErrorText(); ok {
		t.Fatal("plain table reported an error row")
	}
}
