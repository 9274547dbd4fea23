// Package registry holds the static catalog of named business operations the
// assistant can perform.
//
// The catalog is the single source of truth for what the language oracle is
// allowed to propose: every operation is registered once at process start
// with its handler, its closed set of required parameters, and the
// human-readable descriptions rendered into the oracle prompt. The registry
// is never mutated after startup.
package registry

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// ErrDuplicateName is returned by Register when an operation with the same
// name is already present.
var ErrDuplicateName = errors.New("registry: duplicate operation name")

// ErrUnknownOperation is returned by Lookup for names not in the catalog.
var ErrUnknownOperation = errors.New("registry: unknown operation")

// dateAnnotation is appended to the menu line of every date-typed parameter
// so the oracle knows the expected wire format.
const dateAnnotation = "(must be YYYY-MM-DD; natural-language dates accepted and normalized)"

// Handler executes one business operation. args holds the resolved parameter
// values keyed by parameter name. Handlers report failure through the error
// return; the dispatcher converts errors (and panics) into structured
// results, so a handler must never be relied on to crash the caller.
type Handler func(ctx context.Context, args map[string]string) (Payload, error)

// Param describes one required parameter of an operation.
type Param struct {
	// Name is the argument key the oracle must produce.
	Name string
	// Description is the human-readable explanation shown in the menu.
	Description string
	// IsDate marks calendar-date parameters; the menu annotates these with
	// the expected YYYY-MM-DD format.
	IsDate bool
}

// Descriptor is the immutable registration record for one operation.
type Descriptor struct {
	// Name is the unique operation key, e.g. "reconcile_sap_vs_es_sales".
	Name string
	// Description is a one-line summary shown in the menu.
	Description string
	// Params is the ordered, closed set of required parameters. Parameter
	// names must be unique within a descriptor.
	Params []Param
	// Handler executes the operation.
	Handler Handler
}

// Registry is the process-wide read-only operation catalog. Registration
// happens once during startup; afterwards only Lookup/Describe are used, so
// no locking is needed.
type Registry struct {
	byName map[string]*Descriptor
	order  []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register adds a descriptor to the catalog. It fails with ErrDuplicateName
// when the name is already taken, and rejects descriptors with an empty
// name, a nil handler, or duplicate parameter names.
func (r *Registry) Register(d Descriptor) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("registry: operation name must not be empty")
	}
	if d.Handler == nil {
		return fmt.Errorf("registry: operation %q has no handler", d.Name)
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, d.Name)
	}
	seen := make(map[string]struct{}, len(d.Params))
	for _, p := range d.Params {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("registry: operation %q has a parameter with an empty name", d.Name)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("registry: operation %q declares parameter %q twice", d.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
	}

	dc := d
	dc.Params = append([]Param(nil), d.Params...)
	r.byName[d.Name] = &dc
	r.order = append(r.order, d.Name)
	return nil
}

// MustRegister is Register for static catalogs built at init time, where a
// registration error is a programming defect.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for name or ErrUnknownOperation.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return d, nil
}

// Names returns the operation names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Describe returns a restartable sequence of human-readable menu lines, one
// per operation, in registration order. Each line carries the operation
// name, its description, and every required parameter with its description;
// date parameters are annotated with the expected format. The sequence is
// rebuilt on every iteration, so two passes over an unchanged registry yield
// identical output.
func (r *Registry) Describe() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range r.order {
			if !yield(r.describeOne(r.byName[name])) {
				return
			}
		}
	}
}

// Menu renders the full catalog as a single text block for prompt embedding.
func (r *Registry) Menu() string {
	var sb strings.Builder
	for line := range r.Describe() {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return "(no operations registered)"
	}
	return sb.String()
}

func (r *Registry) describeOne(d *Descriptor) string {
	var sb strings.Builder
	sb.WriteString(d.Name)
	sb.WriteString(": ")
	sb.WriteString(d.Description)
	if len(d.Params) == 0 {
		sb.WriteString(" Takes no parameters.")
		return sb.String()
	}
	sb.WriteString(" Parameters:")
	for _, p := range d.Params {
		sb.WriteString(" ")
		sb.WriteString(p.Name)
		sb.WriteString(" — ")
		sb.WriteString(p.Description)
		if p.IsDate {
			sb.WriteString(" ")
			sb.WriteString(dateAnnotation)
		}
		sb.WriteString(";")
	}
	return strings.TrimSuffix(sb.String(), ";") + "."
}
