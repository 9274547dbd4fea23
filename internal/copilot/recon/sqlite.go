package recon

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"
)

// tableNamePattern restricts source table names to plain identifiers, since
// table names cannot be bound as query parameters.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource is a Source over one table of an already-open SQLite
// database. Two instances over the same handle (one per table) give the
// engine its ledger and SAP sides.
//
// Fetch order is rowid order, which for these append-only tables is
// insertion order.
type SQLiteSource struct {
	db    *sql.DB
	table string
}

// NewSQLiteSource returns a SQLiteSource reading from table. The table name
// must be a plain identifier.
func NewSQLiteSource(db *sql.DB, table string) (*SQLiteSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("recon: invalid table name %q", table)
	}
	return &SQLiteSource{db: db, table: table}, nil
}

// EnsureSchema creates the source table if it does not exist.
func (s *SQLiteSource) EnsureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		slip_id          TEXT NOT NULL,
		distributor_id   TEXT NOT NULL,
		buyer_id         TEXT NOT NULL,
		sale_date        TEXT NOT NULL,
		amount           INTEGER NOT NULL,
		payment_doc_no   TEXT NOT NULL DEFAULT '',
		distributor_name TEXT NOT NULL DEFAULT ''
	)`, s.table)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("recon: ensure %s schema: %w", s.table, err)
	}
	return nil
}

// Insert appends records to the source table.
func (s *SQLiteSource) Insert(ctx context.Context, records ...Record) error {
	stmt := fmt.Sprintf(`INSERT INTO %s
		(slip_id, distributor_id, buyer_id, sale_date, amount, payment_doc_no, distributor_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.table)
	for _, r := range records {
		_, err := s.db.ExecContext(ctx, stmt,
			string(r.SlipID), string(r.DistributorID), string(r.BuyerID),
			r.SaleDate, int64(r.Amount), r.PaymentDocNo, r.DistributorName)
		if err != nil {
			return fmt.Errorf("recon: insert into %s: %w", s.table, err)
		}
	}
	return nil
}

// FetchByDateRange implements Source. Sale dates are stored in YYYY-MM-DD
// form, so lexical comparison matches chronological comparison.
func (s *SQLiteSource) FetchByDateRange(ctx context.Context, start, end time.Time) ([]Record, error) {
	query := fmt.Sprintf(`SELECT slip_id, distributor_id, buyer_id, sale_date, amount, payment_doc_no, distributor_name
		FROM %s WHERE sale_date >= ? AND sale_date <= ? ORDER BY rowid`, s.table)

	rows, err := s.db.QueryContext(ctx, query, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("recon: query %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var slip, distributor, buyer string
		var amount int64
		if err := rows.Scan(&slip, &distributor, &buyer, &r.SaleDate, &amount, &r.PaymentDocNo, &r.DistributorName); err != nil {
			return nil, fmt.Errorf("recon: scan %s row: %w", s.table, err)
		}
		r.SlipID = FlexID(normalizeID(slip))
		r.DistributorID = FlexID(normalizeID(distributor))
		r.BuyerID = FlexID(normalizeID(buyer))
		r.Amount = FlexInt(amount)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recon: iterate %s rows: %w", s.table, err)
	}
	return out, nil
}
