package resolver

import (
	"fmt"
	"strings"
	"time"
)

// History truncation bounds. These are a token/latency budget, not a
// correctness requirement; truncation must stay deterministic and
// order-preserving.
const (
	// maxHistoryTurns is the number of most-recent turns included in the prompt.
	maxHistoryTurns = 24
	// maxTurnChars is the per-turn content clip length.
	maxTurnChars = 100
	// ellipsis marks clipped turn content.
	ellipsis = "…"
)

// promptTemplate is the complete oracle prompt. Substitution variables (in
// order via fmt.Sprintf):
//  1. %s — today's date in YYYY-MM-DD form
//  2. %s — operation menu (registry.Menu())
//  3. %s — truncated conversation history block
//  4. %s — raw user text
const promptTemplate = `You are Commission Co-Pilot, an assistant for commission and payment back-office operations.
Your only job is to translate the user's request into a structured JSON response.
You never execute operations yourself — you only identify them.

The current date is %s.

DATE RULES:
- All date parameters use YYYY-MM-DD form.
- Resolve relative expressions against the current date above: "today" is the current date, "yesterday" is the day before, "this month" runs from the first day of the current month through today, "this year" runs from January 1 of the current year through today. Never assume a hardcoded year.

AVAILABLE OPERATIONS:
%s
RULES (strict — do not deviate):
1. Respond ONLY with a single valid JSON object. No markdown, no code fences, no text outside JSON.
2. Only use operation names from the list above; do not invent operations.
3. If the request maps to an operation and every required parameter can be determined, respond:
   {"status": "action_found", "action": "<operation name>", "args": {"<param>": "<value>", ...}, "message": "<one-sentence confirmation question>"}
4. If the request maps to an operation but required parameters cannot be determined, respond:
   {"status": "action_not_found", "reason": "missing_parameters", "message": "<question naming exactly the missing parameters>"}
5. If the request maps to no operation (a greeting, chit-chat, or an unrelated question), respond:
   {"status": "action_not_found", "reason": "unclear", "message": "<friendly reply steering the user toward the available operations>"}

CONVERSATION SO FAR:
%s
USER REQUEST: %s`

// BuildPrompt assembles the full oracle prompt. now supplies today's date so
// callers (and tests) control time; menu is the rendered operation catalog.
func BuildPrompt(now time.Time, menu string, history []Turn, userText string) string {
	return fmt.Sprintf(promptTemplate,
		now.Format("2006-01-02"),
		menu,
		historyBlock(history),
		userText,
	)
}

// historyBlock renders the truncated history, oldest first, one turn per
// line. Returns a sentinel line for fresh conversations so the oracle knows
// there is no prior context.
func historyBlock(history []Turn) string {
	trimmed := truncateHistory(history)
	if len(trimmed) == 0 {
		return "(no prior messages)\n"
	}
	var sb strings.Builder
	for _, t := range trimmed {
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// truncateHistory keeps the most recent maxHistoryTurns turns and clips each
// turn's content to maxTurnChars runes, appending an ellipsis to clipped
// turns. Order is preserved.
func truncateHistory(history []Turn) []Turn {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	out := make([]Turn, len(history))
	for i, t := range history {
		out[i] = Turn{Role: t.Role, Content: clip(t.Content, maxTurnChars)}
	}
	return out
}

// clip shortens s to at most n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + ellipsis
}
