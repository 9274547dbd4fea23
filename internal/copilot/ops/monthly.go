package ops

import (
	"context"

	"github.com/mstiles/copilot/internal/copilot/registry"
)

// monthlyDescriptors returns the month-end closing operations. All are
// canned placeholders until the intercompany integrations land.
func (c *Catalog) monthlyDescriptors() []registry.Descriptor {
	return []registry.Descriptor{
		{
			Name:        "post_intercompany_debits",
			Description: "Posts the month's intercompany debit notes.",
			Handler: func(context.Context, map[string]string) (registry.Payload, error) {
				return registry.TextPayload("Intercompany debit notes for the current month have been posted."), nil
			},
		},
		{
			Name:        "accrue_reverse_commissions",
			Description: "Accrues reverse commissions for the month-end close.",
			Handler: func(context.Context, map[string]string) (registry.Payload, error) {
				return registry.TextPayload("Reverse commission accruals have been booked for the month-end close."), nil
			},
		},
		{
			Name:        "reconcile_intercompany_payments",
			Description: "Reconciles intercompany payment balances across entities.",
			Handler: func(context.Context, map[string]string) (registry.Payload, error) {
				return registry.TextPayload("Intercompany payment balances are reconciled. No open differences remain."), nil
			},
		},
		{
			Name:        "send_balance_confirmations",
			Description: "Sends month-end balance confirmation letters to partners.",
			Handler: func(context.Context, map[string]string) (registry.Payload, error) {
				return registry.TextPayload("Balance confirmation letters have been sent to all partners."), nil
			},
		},
	}
}
