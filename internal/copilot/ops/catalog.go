// Package ops defines the business operation catalog: daily commission and
// payment tasks, month-end closing tasks, and read-only reports.
//
// Handlers that depend on back-office systems not yet connected return
// canned success text; the response shape (text and tables) is final, so
// swapping a placeholder for the real integration never changes callers.
package ops

import (
	"github.com/mstiles/copilot/internal/copilot/recon"
	"github.com/mstiles/copilot/internal/copilot/registry"
)

// Catalog bundles the operation handlers with their shared dependencies.
type Catalog struct {
	// Engine backs reconcile_sap_vs_es_sales and remove_payment_block.
	Engine *recon.Engine
	// Remover receives payment-block candidates from remove_payment_block.
	Remover recon.PaymentBlockRemover
}

// NewCatalog returns a Catalog over the given engine and remover. A nil
// remover falls back to the logging placeholder.
func NewCatalog(engine *recon.Engine, remover recon.PaymentBlockRemover) *Catalog {
	if remover == nil {
		remover = recon.LoggingRemover{}
	}
	return &Catalog{Engine: engine, Remover: remover}
}

// Register adds every operation to reg, daily then monthly then reports.
func (c *Catalog) Register(reg *registry.Registry) error {
	var all []registry.Descriptor
	all = append(all, c.dailyDescriptors()...)
	all = append(all, c.monthlyDescriptors()...)
	all = append(all, c.reportDescriptors()...)

	for _, d := range all {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}
