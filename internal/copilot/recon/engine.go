package recon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mstiles/copilot/common/trace"
)

// ErrInvalidDateFormat is returned by Reconcile when a boundary date is not
// in YYYY-MM-DD form.
var ErrInvalidDateFormat = errors.New("recon: date must be in YYYY-MM-DD form")

const dateLayout = "2006-01-02"

// Source supplies records for an inclusive date range. Implementations must
// return records in a stable order; the engine's "first match wins" pairing
// depends on it.
type Source interface {
	FetchByDateRange(ctx context.Context, start, end time.Time) ([]Record, error)
}

// Engine runs reconciliations between the internal ledger and SAP.
type Engine struct {
	ledger Source
	sap    Source
}

// NewEngine returns an Engine reading ES records from ledger and the
// counterpart records from sap.
func NewEngine(ledger, sap Source) *Engine {
	return &Engine{ledger: ledger, sap: sap}
}

// Reconcile fetches both sides for the inclusive [startDate, endDate] range
// and classifies every ledger record:
//
//   - matched in SAP with a different amount → AmountMismatch
//   - matched with an equal amount but an empty SAP payment document →
//     PaymentBlockCandidate
//   - matched and fully consistent, or unmatched → dropped (unmatched
//     records are tallied in Report.UnmatchedLedger)
//
// When SAP holds several records under one composite key, the first in
// fetch order wins and the duplicate is noted in Report.Warnings.
func (e *Engine) Reconcile(ctx context.Context, startDate, endDate string) (*Report, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("recon: end date %s precedes start date %s", endDate, startDate)
	}

	log := slog.With("trace_id", trace.FromContext(ctx), "start_date", startDate, "end_date", endDate)

	ledger, err := e.ledger.FetchByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("recon: fetch ledger records: %w", err)
	}
	sap, err := e.sap.FetchByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("recon: fetch sap records: %w", err)
	}

	report := &Report{
		StartDate:       startDate,
		EndDate:         endDate,
		Mismatches:      []AmountMismatch{},
		BlockCandidates: []PaymentBlockCandidate{},
		LedgerRecords:   len(ledger),
		SAPRecords:      len(sap),
	}

	sapByKey := indexSAP(sap, report)

	for _, es := range ledger {
		counterpart, ok := sapByKey[es.Key()]
		if !ok {
			report.UnmatchedLedger++
			continue
		}
		classify(es, counterpart, report)
	}

	report.MismatchCount = len(report.Mismatches)
	report.BlockCandidateCount = len(report.BlockCandidates)

	log.Info("recon: reconciliation complete",
		"ledger_records", report.LedgerRecords,
		"sap_records", report.SAPRecords,
		"mismatches", report.MismatchCount,
		"block_candidates", report.BlockCandidateCount,
		"unmatched_ledger", report.UnmatchedLedger,
	)
	return report, nil
}

// indexSAP builds the key index over the SAP side, keeping the first record
// per key and recording duplicates as warnings.
func indexSAP(records []Record, report *Report) map[Key]Record {
	index := make(map[Key]Record, len(records))
	for _, r := range records {
		k := r.Key()
		if _, seen := index[k]; seen {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"duplicate SAP record for slip %s, distributor %s, buyer %s; keeping the first",
				k.SlipID, k.DistributorID, k.BuyerID))
			continue
		}
		index[k] = r
	}
	return index
}

// classify appends the matched pair's finding, if any, to the report.
func classify(es, sap Record, report *Report) {
	name := sap.DistributorName
	if name == "" {
		name = es.DistributorName
	}

	if es.Amount != sap.Amount {
		report.Mismatches = append(report.Mismatches, AmountMismatch{
			SlipID:          string(es.SlipID),
			DistributorID:   string(es.DistributorID),
			BuyerID:         string(es.BuyerID),
			DistributorName: name,
			SaleDate:        es.SaleDate,
			ESAmount:        int64(es.Amount),
			SAPAmount:       int64(sap.Amount),
		})
		return
	}

	if strings.TrimSpace(sap.PaymentDocNo) == "" {
		report.BlockCandidates = append(report.BlockCandidates, PaymentBlockCandidate{
			SlipID:          string(es.SlipID),
			DistributorID:   string(es.DistributorID),
			BuyerID:         string(es.BuyerID),
			DistributorName: name,
			SaleDate:        es.SaleDate,
			Amount:          int64(es.Amount),
		})
	}
}

// parseDate validates the YYYY-MM-DD form strictly.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	return t, nil
}
