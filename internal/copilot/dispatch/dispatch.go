// Package dispatch executes confirmed operations against the registry.
//
// The dispatcher is a terminal error boundary: every failure mode — unknown
// operation, bad arguments, handler error, handler panic — is converted into
// a structured Result. Nothing above the dispatcher needs to catch anything.
// Exactly one handler invocation happens per Dispatch call; retries, if
// desired, belong to the handler.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mstiles/copilot/common/trace"
	"github.com/mstiles/copilot/internal/copilot/registry"
)

// unknownToolMessage is the failure text for operations absent from the
// registry. The resolver does not guarantee that an oracle-proposed name is
// registered, so this path is reachable with a well-behaved caller.
const unknownToolMessage = "Unknown tool"

// Result is the outcome of one Dispatch call.
type Result struct {
	// Operation is the requested operation name, echoed back.
	Operation string
	// Payload is the handler output. Only meaningful when Failed is false.
	Payload registry.Payload
	// Failed marks the failure outcome.
	Failed bool
	// ErrorText is the user-facing failure text. Only set when Failed.
	ErrorText string
}

// Failure builds a failed Result.
func Failure(operation, errorText string) Result {
	return Result{Operation: operation, Failed: true, ErrorText: errorText}
}

// Dispatcher looks operations up in the registry and invokes their handlers.
type Dispatcher struct {
	reg *registry.Registry
}

// New returns a Dispatcher over the given registry.
func New(reg *registry.Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Dispatch executes operation with args. It never panics and never returns
// an error; all failures surface in the Result.
//
// Before the handler runs, args are checked against the descriptor's closed
// parameter set: every required parameter must be present and non-empty, and
// no unexpected parameter names are accepted. This keeps argument
// enforcement declarative — adding an operation never touches dispatch code.
func (d *Dispatcher) Dispatch(ctx context.Context, operation string, args map[string]string) Result {
	log := slog.With("operation", operation, "trace_id", trace.FromContext(ctx))

	desc, err := d.reg.Lookup(operation)
	if err != nil {
		log.Warn("dispatch: unknown operation")
		return Failure(operation, unknownToolMessage)
	}

	if msg := checkArgs(desc, args); msg != "" {
		log.Warn("dispatch: argument check failed", "detail", msg)
		return Failure(operation, msg)
	}

	payload, err := invoke(ctx, desc, args)
	if err != nil {
		log.Warn("dispatch: handler failed", "err", err)
		return Failure(operation, fmt.Sprintf("An error occurred while trying to perform the action: %v", err))
	}

	log.Info("dispatch: operation executed")
	return Result{Operation: operation, Payload: payload}
}

// invoke runs the handler, converting a panic into an error so a defective
// handler cannot crash the conversation.
func invoke(ctx context.Context, desc *registry.Descriptor, args map[string]string) (payload registry.Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return desc.Handler(ctx, args)
}

// checkArgs validates args against the descriptor's closed parameter set.
// Returns a user-facing message naming the offending parameters, or "" when
// the arguments are acceptable.
func checkArgs(desc *registry.Descriptor, args map[string]string) string {
	known := make(map[string]struct{}, len(desc.Params))
	var missing []string
	for _, p := range desc.Params {
		known[p.Name] = struct{}{}
		if strings.TrimSpace(args[p.Name]) == "" {
			missing = append(missing, p.Name)
		}
	}

	var unexpected []string
	for name := range args {
		if _, ok := known[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	sort.Strings(unexpected)

	switch {
	case len(missing) > 0:
		return fmt.Sprintf("Missing required parameters for %s: %s", desc.Name, strings.Join(missing, ", "))
	case len(unexpected) > 0:
		return fmt.Sprintf("Unexpected parameters for %s: %s", desc.Name, strings.Join(unexpected, ", "))
	default:
		return ""
	}
}
