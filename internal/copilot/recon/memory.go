package recon

import (
	"context"
	"time"
)

// MemorySource is a Source over an in-process record slice. Fetch order is
// insertion order. Used when no database is configured, and in tests.
type MemorySource struct {
	records []Record
}

// NewMemorySource returns a MemorySource seeded with records.
func NewMemorySource(records ...Record) *MemorySource {
	return &MemorySource{records: append([]Record(nil), records...)}
}

// Add appends records to the source.
func (m *MemorySource) Add(records ...Record) {
	m.records = append(m.records, records...)
}

// FetchByDateRange implements Source. The range is inclusive on both ends;
// records with unparsable sale dates are skipped.
func (m *MemorySource) FetchByDateRange(_ context.Context, start, end time.Time) ([]Record, error) {
	var out []Record
	for _, r := range m.records {
		d, err := time.Parse(dateLayout, r.SaleDate)
		if err != nil {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
