package registry

// ErrorColumn is the reserved Table column name signalling a user-facing
// error row. Front ends render such a row as an inline error message rather
// than a data grid.
const ErrorColumn = "Error"

// Payload is the successful output of an operation handler: free text, a
// report-style table, or both.
type Payload struct {
	// Text is a conversational reply shown verbatim to the user.
	Text string
	// Table is report-style output; nil when the operation has none.
	Table *Table
}

// TextPayload wraps a plain-text reply.
func TextPayload(text string) Payload {
	return Payload{Text: text}
}

// TablePayload wraps a tabular report.
func TablePayload(t *Table) Payload {
	return Payload{Table: t}
}

// Row is one record of a Table: column name → scalar cell value.
type Row map[string]any

// Table is an ordered sequence of uniform-shaped records used for
// report-style outputs. Columns fixes the display order; every Row is
// expected to carry the same keys.
type Table struct {
	Columns []string
	Rows    []Row
}

// ErrorTable builds a single-row table carrying a user-facing error message
// in the reserved Error column.
func ErrorTable(message string) *Table {
	return &Table{
		Columns: []string{ErrorColumn},
		Rows:    []Row{{ErrorColumn: message}},
	}
}

// ErrorText returns the message of the first error row, if the table uses
// the reserved Error column.
func (t *Table) ErrorText() (string, bool) {
	if t == nil || len(t.Rows) == 0 {
		return "", false
	}
	for _, c := range t.Columns {
		if c == ErrorColumn {
			if v, ok := t.Rows[0][ErrorColumn]; ok {
				if s, ok := v.(string); ok {
					return s, true
				}
			}
			return "", false
		}
	}
	return "", false
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}
