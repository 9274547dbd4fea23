package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mstiles/copilot/internal/copilot/registry"
)

// Reason tags a NotFound resolution with why no operation was produced.
type Reason string

const (
	// ReasonUnclear means the request did not map to any operation, or the
	// oracle reply could not be interpreted.
	ReasonUnclear Reason = "unclear"
	// ReasonMissingParameters means an operation matched but required
	// parameters could not be determined from the request.
	ReasonMissingParameters Reason = "missing_parameters"
)

// Resolution is the outcome of one Resolve call.
//
// Found == true means Operation/Args/Message are populated and the caller
// should park the operation in the pending-action gate. The resolver does
// not verify Operation against the registry — it reflects what the oracle
// returned — so the dispatcher must re-validate at execution time.
//
// Found == false means Message carries a conversational reply and Reason
// says whether the request was unclear or merely under-specified.
type Resolution struct {
	Found     bool
	Operation string
	Args      map[string]string
	Message   string
	Reason    Reason
}

// Conversational fallback messages used when the oracle itself fails. These
// replace raw error text so the conversation never surfaces transport
// details to the user.
const (
	oracleDownMessage = "I couldn't reach the assistant service just now. Please try again in a moment."
	unparsableMessage = "I didn't quite understand that. Could you rephrase your request?"
)

// replySchema is the canonical oracle reply contract. Earlier iterations of
// this system accepted a bare {"action","args"} shape as well; only this
// versioned shape is valid now, and anything else degrades to NotFound.
const replySchema = `{
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": {"enum": ["action_found", "action_not_found"]},
    "action": {"type": "string", "minLength": 1},
    "args": {"type": "object", "additionalProperties": {"type": "string"}},
    "message": {"type": "string"},
    "reason": {"enum": ["unclear", "missing_parameters"]}
  },
  "if": {"properties": {"status": {"const": "action_found"}}},
  "then": {"required": ["action", "args"]}
}`

var compiledReplySchema = jsonschema.MustCompileString("oracle-reply.schema.json", replySchema)

// oracleReply is the decoded form of a schema-valid oracle response.
type oracleReply struct {
	Status  string            `json:"status"`
	Action  string            `json:"action"`
	Args    map[string]string `json:"args"`
	Message string            `json:"message"`
	Reason  string            `json:"reason"`
}

// Resolver maps free text plus recent history onto a Resolution using the
// operation registry's menu and a language oracle.
//
// Resolution is stateless across calls except for the caller-supplied
// history. Safe for concurrent use when the underlying Oracle is.
type Resolver struct {
	oracle Oracle
	reg    *registry.Registry

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// New returns a Resolver over the given oracle and registry.
func New(oracle Oracle, reg *registry.Registry) *Resolver {
	return &Resolver{oracle: oracle, reg: reg, now: time.Now}
}

// Resolve translates userText into a Resolution. It always returns a value:
// oracle failures, non-JSON replies, and schema violations all degrade to
// NotFound rather than propagating.
func (r *Resolver) Resolve(ctx context.Context, userText string, history []Turn) Resolution {
	prompt := BuildPrompt(r.now(), r.reg.Menu(), history, userText)

	raw, err := r.oracle.Complete(ctx, prompt)
	if err != nil {
		slog.Warn("resolver: oracle call failed", "err", err)
		return Resolution{Found: false, Reason: ReasonUnclear, Message: oracleDownMessage}
	}

	return parseReply(raw)
}

// parseReply validates and decodes the raw oracle text. The oracle is an
// untrusted, schema-violating input channel; nothing here may panic or
// return an error.
func parseReply(raw string) Resolution {
	var generic any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &generic); err != nil {
		slog.Debug("resolver: oracle reply is not JSON", "err", err)
		return Resolution{Found: false, Reason: ReasonUnclear, Message: unparsableMessage}
	}
	if err := compiledReplySchema.Validate(generic); err != nil {
		slog.Debug("resolver: oracle reply violates schema", "err", err)
		return Resolution{Found: false, Reason: ReasonUnclear, Message: unparsableMessage}
	}

	var reply oracleReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &reply); err != nil {
		return Resolution{Found: false, Reason: ReasonUnclear, Message: unparsableMessage}
	}

	switch reply.Status {
	case "action_found":
		args := reply.Args
		if args == nil {
			args = map[string]string{}
		}
		msg := reply.Message
		if msg == "" {
			msg = fallbackConfirmation(reply.Action, args)
		}
		return Resolution{
			Found:     true,
			Operation: reply.Action,
			Args:      args,
			Message:   msg,
		}

	case "action_not_found":
		reason := ReasonUnclear
		if reply.Reason == string(ReasonMissingParameters) {
			reason = ReasonMissingParameters
		}
		msg := reply.Message
		if msg == "" {
			msg = unparsableMessage
		}
		return Resolution{Found: false, Reason: reason, Message: msg}

	default:
		// Unreachable once the schema validated, but the oracle channel is
		// untrusted end to end.
		return Resolution{Found: false, Reason: ReasonUnclear, Message: unparsableMessage}
	}
}

// fallbackConfirmation builds the confirmation question shown when the
// oracle resolved an operation but supplied no message of its own.
func fallbackConfirmation(operation string, args map[string]string) string {
	if len(args) == 0 {
		return fmt.Sprintf("I understand you want to perform the action **%s**. Should I proceed?", operation)
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%s", k, args[k])
	}
	return fmt.Sprintf("I understand you want to perform the action **%s** with the parameters **%s**. Should I proceed?", operation, sb.String())
}
