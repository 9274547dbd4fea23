package ops

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mstiles/copilot/internal/copilot/recon"
	"github.com/mstiles/copilot/internal/copilot/registry"
)

// dailyDescriptors returns the day-to-day commission and payment operations.
// Most handlers are canned placeholders awaiting their back-office
// integrations; reconciliation and payment-block removal run for real.
func (c *Catalog) dailyDescriptors() []registry.Descriptor {
	return []registry.Descriptor{
		{
			Name:        "recover_sap_commission",
			Description: "Recovers a missing SAP commission for a specific sales order.",
			Params: []registry.Param{
				{Name: "order_id", Description: "the sales order number to recover the commission for"},
				{Name: "reason", Description: "why the commission needs to be recovered"},
			},
			Handler: func(_ context.Context, args map[string]string) (registry.Payload, error) {
				return registry.TextPayload(fmt.Sprintf(
					"Commission recovery has been submitted for order %s (reason: %s). You will be notified once SAP processes it.",
					args["order_id"], args["reason"])), nil
			},
		},
		{
			Name:        "reconcile_sap_vs_es_sales",
			Description: "Compares sales records between SAP and the ES ledger for a date range and reports discrepancies.",
			Params: []registry.Param{
				{Name: "start_date", Description: "first day of the range", IsDate: true},
				{Name: "end_date", Description: "last day of the range", IsDate: true},
			},
			Handler: c.reconcileHandler,
		},
		{
			Name:        "check_recovery_status",
			Description: "Shows the status of commission recoveries submitted earlier.",
			Handler: func(context.Context, map[string]string) (registry.Payload, error) {
				return registry.TextPayload("There are no commission recoveries currently in progress."), nil
			},
		},
		{
			Name:        "process_sales_payment",
			Description: "Processes distributor payments for the sales of a given day.",
			Params: []registry.Param{
				{Name: "sales_date", Description: "the sales day to process payments for", IsDate: true},
			},
			Handler: func(_ context.Context, args map[string]string) (registry.Payload, error) {
				return registry.TextPayload(fmt.Sprintf(
					"Sales payments for %s have been queued for processing.", args["sales_date"])), nil
			},
		},
		{
			Name:        "issue_payment",
			Description: "Issues a one-off payment to a recipient.",
			Params: []registry.Param{
				{Name: "payment_method", Description: "how to pay, e.g. bank transfer or check"},
				{Name: "recipient", Description: "who receives the payment"},
				{Name: "amount", Description: "the payment amount"},
			},
			Handler: func(_ context.Context, args map[string]string) (registry.Payload, error) {
				return registry.TextPayload(fmt.Sprintf(
					"A %s payment of %s to %s has been issued.",
					args["payment_method"], args["amount"], args["recipient"])), nil
			},
		},
		{
			Name:        "update_es_payment_result",
			Description: "Uploads a payment result file into the ES ledger.",
			Params: []registry.Param{
				{Name: "file_name", Description: "the payment result file to upload"},
			},
			Handler: func(_ context.Context, args map[string]string) (registry.Payload, error) {
				return registry.TextPayload(fmt.Sprintf(
					"Payment results from %s have been applied to the ES ledger.", args["file_name"])), nil
			},
		},
		{
			Name:        "recover_canceled_orders",
			Description: "Re-runs commission recovery for orders canceled after payout.",
			Handler: func(context.Context, map[string]string) (registry.Payload, error) {
				return registry.TextPayload("Recovery for canceled orders has been started. No canceled orders required adjustment today."), nil
			},
		},
		{
			Name:        "remove_payment_block",
			Description: "Finds reconciled records whose payment is still blocked in SAP and requests the block removal.",
			Params: []registry.Param{
				{Name: "start_date", Description: "first day of the range", IsDate: true},
				{Name: "end_date", Description: "last day of the range", IsDate: true},
			},
			Handler: c.removeBlockHandler,
		},
	}
}

// reconcileHandler runs the reconciliation engine and renders the report.
func (c *Catalog) reconcileHandler(ctx context.Context, args map[string]string) (registry.Payload, error) {
	report, err := c.Engine.Reconcile(ctx, args["start_date"], args["end_date"])
	if err != nil {
		return registry.Payload{}, err
	}

	text := fmt.Sprintf(
		"Reconciliation for %s through %s: %d ES records vs %d SAP records — %d amount mismatches, %d payment-block candidates, %d ES records without an SAP counterpart.",
		report.StartDate, report.EndDate,
		report.LedgerRecords, report.SAPRecords,
		report.MismatchCount, report.BlockCandidateCount, report.UnmatchedLedger)

	table := reportTable(report)
	if table.Empty() {
		return registry.TextPayload(text + " Everything matched."), nil
	}
	return registry.Payload{Text: text, Table: table}, nil
}

// removeBlockHandler reconciles the range and hands the payment-block
// candidates to the remover hook.
func (c *Catalog) removeBlockHandler(ctx context.Context, args map[string]string) (registry.Payload, error) {
	report, err := c.Engine.Reconcile(ctx, args["start_date"], args["end_date"])
	if err != nil {
		return registry.Payload{}, err
	}
	if len(report.BlockCandidates) == 0 {
		return registry.TextPayload(fmt.Sprintf(
			"No blocked payments found between %s and %s.", report.StartDate, report.EndDate)), nil
	}

	removed, err := c.Remover.RemovePaymentBlock(ctx, report.BlockCandidates)
	if err != nil {
		return registry.Payload{}, fmt.Errorf("remove payment block: %w", err)
	}
	return registry.TextPayload(fmt.Sprintf(
		"Payment block removal has been requested for %d of %d candidate records between %s and %s.",
		removed, len(report.BlockCandidates), report.StartDate, report.EndDate)), nil
}

// reportTable flattens the report's findings into one table, a "Finding"
// column distinguishing the two kinds.
func reportTable(report *recon.Report) *registry.Table {
	t := &registry.Table{
		Columns: []string{"Finding", "Slip ID", "Distributor", "Buyer ID", "Sale Date", "ES Amount", "SAP Amount"},
	}
	for _, m := range report.Mismatches {
		t.Rows = append(t.Rows, registry.Row{
			"Finding":     "Amount mismatch",
			"Slip ID":     m.SlipID,
			"Distributor": distributorLabel(m.DistributorName, m.DistributorID),
			"Buyer ID":    m.BuyerID,
			"Sale Date":   m.SaleDate,
			"ES Amount":   strconv.FormatInt(m.ESAmount, 10),
			"SAP Amount":  strconv.FormatInt(m.SAPAmount, 10),
		})
	}
	for _, b := range report.BlockCandidates {
		amount := strconv.FormatInt(b.Amount, 10)
		t.Rows = append(t.Rows, registry.Row{
			"Finding":     "Payment block candidate",
			"Slip ID":     b.SlipID,
			"Distributor": distributorLabel(b.DistributorName, b.DistributorID),
			"Buyer ID":    b.BuyerID,
			"Sale Date":   b.SaleDate,
			"ES Amount":   amount,
			"SAP Amount":  amount,
		})
	}
	return t
}

func distributorLabel(name, id string) string {
	if name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}
