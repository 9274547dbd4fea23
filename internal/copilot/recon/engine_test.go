package recon_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mstiles/copilot/internal/copilot/recon"
)

// mustDate parses a YYYY-MM-DD test fixture date.
func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// rec builds a record with the composite key and amount; extras are applied
// by the callers.
func rec(slip, distributor, buyer, date string, amount int64) recon.Record {
	return recon.Record{
		SlipID:        recon.FlexID(slip),
		DistributorID: recon.FlexID(distributor),
		BuyerID:       recon.FlexID(buyer),
		SaleDate:      date,
		Amount:        recon.FlexInt(amount),
	}
}

func withDoc(r recon.Record, doc string) recon.Record {
	r.PaymentDocNo = doc
	return r
}

func reconcile(t *testing.T, ledger, sap []recon.Record, start, end string) *recon.Report {
	t.Helper()
	engine := recon.NewEngine(recon.NewMemorySource(ledger...), recon.NewMemorySource(sap...))
	report, err := engine.Reconcile(context.Background(), start, end)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	return report
}

// TestReconcileAmountMismatch pairs a slip whose amounts disagree and
// expects exactly one mismatch carrying both amounts.
func TestReconcileAmountMismatch(t *testing.T) {
	ledger := []recon.Record{rec("D1", "200", "300", "2026-08-01", 500)}
	sap := []recon.Record{withDoc(rec("D1", "200", "300", "2026-08-01", 400), "PD-9")}

	report := reconcile(t, ledger, sap, "2026-08-01", "2026-08-31")

	if report.MismatchCount != 1 || len(report.Mismatches) != 1 {
		t.Fatalf("mismatches = %d (%v)", report.MismatchCount, report.Mismatches)
	}
	m := report.Mismatches[0]
	if m.ESAmount != 500 || m.SAPAmount != 400 {
		t.Errorf("amounts = es %d, sap %d", m.ESAmount, m.SAPAmount)
	}
	if report.BlockCandidateCount != 0 {
		t.Errorf("unexpected block candidates: %v", report.BlockCandidates)
	}
}

// TestReconcilePaymentBlockCandidate pairs a slip with equal amounts and no
// SAP payment document and expects exactly one candidate.
func TestReconcilePaymentBlockCandidate(t *testing.T) {
	ledger := []recon.Record{rec("D2", "200", "300", "2026-08-02", 750)}
	sap := []recon.Record{rec("D2", "200", "300", "2026-08-02", 750)}

	report := reconcile(t, ledger, sap, "2026-08-01", "2026-08-31")

	if report.BlockCandidateCount != 1 || len(report.BlockCandidates) != 1 {
		t.Fatalf("block candidates = %d (%v)", report.BlockCandidateCount, report.BlockCandidates)
	}
	b := report.BlockCandidates[0]
	if b.SlipID != "D2" || b.Amount != 750 {
		t.Errorf("candidate = %+v", b)
	}
	if report.MismatchCount != 0 {
		t.Errorf("unexpected mismatches: %v", report.Mismatches)
	}
}

// TestReconcileConsistentPairDropped verifies a fully consistent pair
// produces no findings.
func TestReconcileConsistentPairDropped(t *testing.T) {
	ledger := []recon.Record{rec("D3", "200", "300", "2026-08-03", 100)}
	sap := []recon.Record{withDoc(rec("D3", "200", "300", "2026-08-03", 100), "PD-1")}

	report := reconcile(t, ledger, sap, "2026-08-01", "2026-08-31")

	if report.MismatchCount != 0 || report.BlockCandidateCount != 0 {
		t.Fatalf("expected no findings, got %+v", report)
	}
	if report.UnmatchedLedger != 0 {
		t.Errorf("UnmatchedLedger = %d", report.UnmatchedLedger)
	}
}

// TestReconcileUnmatchedLedgerCountedNotListed verifies an ES record with no
// SAP counterpart appears in neither list but is tallied.
func TestReconcileUnmatchedLedgerCountedNotListed(t *testing.T) {
	ledger := []recon.Record{rec("D4", "200", "300", "2026-08-04", 900)}

	report := reconcile(t, ledger, nil, "2026-08-01", "2026-08-31")

	if len(report.Mismatches) != 0 || len(report.BlockCandidates) != 0 {
		t.Fatalf("unmatched record leaked into findings: %+v", report)
	}
	if report.UnmatchedLedger != 1 {
		t.Errorf("UnmatchedLedger = %d, want 1", report.UnmatchedLedger)
	}
}

// TestReconcileKeyNormalization verifies numeric keys match across plain and
// zero-padded renderings.
func TestReconcileKeyNormalization(t *testing.T) {
	ledger := []recon.Record{rec("0100", "0200", "300", "2026-08-05", 50)}
	sap := []recon.Record{withDoc(rec("100", "200", "0300", "2026-08-05", 60), "PD-2")}

	report := reconcile(t, ledger, sap, "2026-08-01", "2026-08-31")

	if report.MismatchCount != 1 {
		t.Fatalf("normalized keys did not match: %+v", report)
	}
}

// TestReconcileDuplicateSAPKeys verifies the first SAP record in fetch order
// wins and the duplicate is surfaced as a warning.
func TestReconcileDuplicateSAPKeys(t *testing.T) {
	ledger := []recon.Record{rec("D5", "200", "300", "2026-08-06", 500)}
	sap := []recon.Record{
		withDoc(rec("D5", "200", "300", "2026-08-06", 400), "PD-3"),
		withDoc(rec("D5", "200", "300", "2026-08-06", 500), "PD-4"),
	}

	report := reconcile(t, ledger, sap, "2026-08-01", "2026-08-31")

	if report.MismatchCount != 1 {
		t.Fatalf("expected the first SAP record to win: %+v", report)
	}
	if report.Mismatches[0].SAPAmount != 400 {
		t.Errorf("SAPAmount = %d, want the first record's 400", report.Mismatches[0].SAPAmount)
	}
	if len(report.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one duplicate-key warning", report.Warnings)
	}
}

func TestReconcileInvalidDates(t *testing.T) {
	engine := recon.NewEngine(recon.NewMemorySource(), recon.NewMemorySource())

	for _, bad := range []string{"08/01/2026", "2026-8-1", "yesterday", ""} {
		if _, err := engine.Reconcile(context.Background(), bad, "2026-08-31"); !errors.Is(err, recon.ErrInvalidDateFormat) {
			t.Errorf("start %q: expected ErrInvalidDateFormat, got %v", bad, err)
		}
	}
	if _, err := engine.Reconcile(context.Background(), "2026-08-31", "2026-08-01"); err == nil {
		t.Error("expected an error for an inverted range")
	}
}

// TestReconcileRangeIsInclusive verifies both boundary days are fetched.
func TestReconcileRangeIsInclusive(t *testing.T) {
	ledger := []recon.Record{
		rec("A", "1", "1", "2026-08-01", 10),
		rec("B", "1", "1", "2026-08-31", 20),
		rec("C", "1", "1", "2026-09-01", 30),
	}

	report := reconcile(t, ledger, nil, "2026-08-01", "2026-08-31")

	if report.LedgerRecords != 2 {
		t.Fatalf("LedgerRecords = %d, want 2", report.LedgerRecords)
	}
}

func TestLoggingRemoverReportsCount(t *testing.T) {
	candidates := []recon.PaymentBlockCandidate{
		{SlipID: "D1", DistributorID: "200", BuyerID: "300", Amount: 100},
		{SlipID: "D2", DistributorID: "200", BuyerID: "300", Amount: 200},
	}
	removed, err := recon.LoggingRemover{}.RemovePaymentBlock(context.Background(), candidates)
	if err != nil {
		t.Fatalf("RemovePaymentBlock: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
}
