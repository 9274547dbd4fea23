package recon

import (
	"context"
	"log/slog"

	"github.com/mstiles/copilot/common/trace"
)

// PaymentBlockRemover releases payment blocks for reconciled candidates.
// Implementations return how many removals they actually performed.
type PaymentBlockRemover interface {
	RemovePaymentBlock(ctx context.Context, candidates []PaymentBlockCandidate) (int, error)
}

// LoggingRemover is the placeholder remover used until the SAP write path is
// connected. It performs no external side effects; it logs each candidate
// and reports all of them as removed so the conversational flow upstream is
// exercised end to end.
type LoggingRemover struct{}

// RemovePaymentBlock implements PaymentBlockRemover.
func (LoggingRemover) RemovePaymentBlock(ctx context.Context, candidates []PaymentBlockCandidate) (int, error) {
	log := slog.With("trace_id", trace.FromContext(ctx))
	for _, c := range candidates {
		log.Info("recon: payment block removal requested",
			"slip_id", c.SlipID,
			"distributor_id", c.DistributorID,
			"buyer_id", c.BuyerID,
			"amount", c.Amount,
		)
	}
	return len(candidates), nil
}
