// Package recon pairs sales records from the internal ledger ("ES") against
// the external system of record ("SAP") and classifies the discrepancies.
//
// Records are matched on the composite key (slip ID, distributor ID, buyer
// ID). A matched pair with differing amounts is an amount mismatch; a
// matched pair with equal amounts but no payment document on the SAP side is
// a payment-block candidate. Everything else is dropped.
package recon

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Key is the composite natural key used to pair records across the two
// systems. All three components are normalized strings (see FlexID).
type Key struct {
	SlipID        string
	DistributorID string
	BuyerID       string
}

// Record is one sales record from either system. The JSON tags describe the
// wire shape both sources share.
type Record struct {
	SlipID          FlexID  `json:"slip_id"`
	DistributorID   FlexID  `json:"distributor_id"`
	BuyerID         FlexID  `json:"buyer_id"`
	SaleDate        string  `json:"sale_date"`
	Amount          FlexInt `json:"amount"`
	PaymentDocNo    string  `json:"payment_doc_no,omitempty"`
	DistributorName string  `json:"distributor_name,omitempty"`
}

// Key returns the record's composite key.
func (r Record) Key() Key {
	return Key{
		SlipID:        string(r.SlipID),
		DistributorID: string(r.DistributorID),
		BuyerID:       string(r.BuyerID),
	}
}

// FlexID is an identifier field that may arrive as a JSON string, a plain
// number, or the boxed long-integer form {"$numberLong": "123"} some
// exports produce. Numeric values are normalized to their canonical decimal
// rendering so "0100", 100, and {"$numberLong":"100"} all compare equal;
// non-numeric strings are kept verbatim.
type FlexID string

// UnmarshalJSON implements the flexible decoding described on FlexID.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	s, err := decodeFlexible(data)
	if err != nil {
		return fmt.Errorf("recon: decode id: %w", err)
	}
	*f = FlexID(normalizeID(s))
	return nil
}

// FlexInt is an integer amount (minor currency units) that may arrive as a
// JSON number, a numeric string, or the boxed {"$numberLong": "..."} form.
type FlexInt int64

// UnmarshalJSON implements the flexible decoding described on FlexInt.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s, err := decodeFlexible(data)
	if err != nil {
		return fmt.Errorf("recon: decode amount: %w", err)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("recon: amount %q is not an integer", s)
	}
	*f = FlexInt(n)
	return nil
}

// decodeFlexible extracts the scalar text from a string, a number, or a
// {"$numberLong": "..."} box.
func decodeFlexible(data []byte) (string, error) {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return "", fmt.Errorf("empty value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{':
		var box struct {
			NumberLong *string `json:"$numberLong"`
		}
		if err := json.Unmarshal(data, &box); err != nil {
			return "", err
		}
		if box.NumberLong == nil {
			return "", fmt.Errorf("object is not a $numberLong box")
		}
		return *box.NumberLong, nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	}
}

// normalizeID canonicalizes numeric identifiers ("0100" → "100") and leaves
// non-numeric identifiers untouched.
func normalizeID(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

// AmountMismatch reports a matched pair whose amounts disagree.
type AmountMismatch struct {
	SlipID          string `json:"slip_id"`
	DistributorID   string `json:"distributor_id"`
	BuyerID         string `json:"buyer_id"`
	DistributorName string `json:"distributor_name,omitempty"`
	SaleDate        string `json:"sale_date"`
	ESAmount        int64  `json:"es_amount"`
	SAPAmount       int64  `json:"sap_amount"`
}

// PaymentBlockCandidate reports a matched pair whose amounts agree but whose
// SAP record lacks a payment-document reference, making it eligible for a
// payment-block release.
type PaymentBlockCandidate struct {
	SlipID          string `json:"slip_id"`
	DistributorID   string `json:"distributor_id"`
	BuyerID         string `json:"buyer_id"`
	DistributorName string `json:"distributor_name,omitempty"`
	SaleDate        string `json:"sale_date"`
	Amount          int64  `json:"amount"`
}

// Report is the outcome of one reconciliation run over an inclusive date
// range.
//
// Unmatched ledger records appear in neither list — the drop is inherited
// behavior, surfaced through UnmatchedLedger so callers can see the gap.
type Report struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	Mismatches      []AmountMismatch        `json:"mismatches"`
	BlockCandidates []PaymentBlockCandidate `json:"block_candidates"`

	MismatchCount       int `json:"mismatch_count"`
	BlockCandidateCount int `json:"block_candidate_count"`

	LedgerRecords   int `json:"ledger_records"`
	SAPRecords      int `json:"sap_records"`
	UnmatchedLedger int `json:"unmatched_ledger"`

	// Warnings carries data-quality notes, e.g. duplicate composite keys on
	// the SAP side (where "first match in fetch order" is arbitrary).
	Warnings []string `json:"warnings,omitempty"`
}
