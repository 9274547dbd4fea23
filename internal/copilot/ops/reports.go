package ops

import (
	"context"
	"fmt"

	"github.com/mstiles/copilot/internal/copilot/registry"
)

// reportDescriptors returns the read-only reporting operations. Table data
// is canned sample content until the reporting warehouse is connected.
func (c *Catalog) reportDescriptors() []registry.Descriptor {
	return []registry.Descriptor{
		{
			Name:        "get_general_commission_report",
			Description: "Shows the general commission report for a date range.",
			Params: []registry.Param{
				{Name: "start_date", Description: "first day of the range", IsDate: true},
				{Name: "end_date", Description: "last day of the range", IsDate: true},
			},
			Handler: func(_ context.Context, args map[string]string) (registry.Payload, error) {
				return registry.Payload{
					Text: fmt.Sprintf("General commission report for %s through %s:", args["start_date"], args["end_date"]),
					Table: &registry.Table{
						Columns: []string{"Distributor", "Orders", "Commission"},
						Rows: []registry.Row{
							{"Distributor": "Northwind Trading", "Orders": "42", "Commission": "12,480"},
							{"Distributor": "Meridian Goods", "Orders": "31", "Commission": "9,115"},
							{"Distributor": "Atlas Wholesale", "Orders": "17", "Commission": "4,030"},
						},
					},
				}, nil
			},
		},
		{
			Name:        "get_top_vendor_payments",
			Description: "Lists the vendors with the largest payment totals this month.",
			Handler: func(context.Context, map[string]string) (registry.Payload, error) {
				return registry.TablePayload(&registry.Table{
					Columns: []string{"Vendor", "Payments", "Total"},
					Rows: []registry.Row{
						{"Vendor": "Northwind Trading", "Payments": "8", "Total": "88,200"},
						{"Vendor": "Meridian Goods", "Payments": "5", "Total": "61,750"},
					},
				}), nil
			},
		},
		{
			Name:        "get_6a_bonus_forecast",
			Description: "Forecasts the 6A bonus payout for the current quarter.",
			Handler: func(context.Context, map[string]string) (registry.Payload, error) {
				return registry.TextPayload("The projected 6A bonus payout for the current quarter is 142,500, up 4% from last quarter."), nil
			},
		},
		{
			Name:        "get_invoice_count",
			Description: "Counts the invoices issued on a sales day.",
			Params: []registry.Param{
				{Name: "sales_date", Description: "the sales day to count invoices for", IsDate: true},
			},
			Handler: func(_ context.Context, args map[string]string) (registry.Payload, error) {
				return registry.TextPayload(fmt.Sprintf("There were 37 invoices issued on %s.", args["sales_date"])), nil
			},
		},
		{
			Name:        "fetch_invoice_details",
			Description: "Shows the invoices issued on a sales day.",
			Params: []registry.Param{
				{Name: "sales_date", Description: "the sales day to fetch invoices for", IsDate: true},
			},
			Handler: func(_ context.Context, args map[string]string) (registry.Payload, error) {
				return registry.Payload{
					Text: fmt.Sprintf("Invoices issued on %s:", args["sales_date"]),
					Table: &registry.Table{
						Columns: []string{"Invoice", "Buyer", "Amount", "Status"},
						Rows: []registry.Row{
							{"Invoice": "INV-20417", "Buyer": "B-1021", "Amount": "5,400", "Status": "Paid"},
							{"Invoice": "INV-20418", "Buyer": "B-1088", "Amount": "2,150", "Status": "Open"},
						},
					},
				}, nil
			},
		},
		{
			Name:        "list_upcoming_overdue_sales_orders",
			Description: "Lists sales orders that will become overdue within the next week.",
			Handler: func(context.Context, map[string]string) (registry.Payload, error) {
				return registry.TextPayload("No sales orders become overdue within the next week."), nil
			},
		},
		{
			Name:        "list_upcoming_overdue_invoices",
			Description: "Lists invoices that will become overdue within the next week.",
			Handler: func(context.Context, map[string]string) (registry.Payload, error) {
				return registry.TablePayload(&registry.Table{
					Columns: []string{"Invoice", "Buyer", "Amount", "Due Date"},
					Rows: []registry.Row{
						{"Invoice": "INV-20392", "Buyer": "B-1004", "Amount": "7,900", "Due Date": "2025-07-04"},
					},
				}), nil
			},
		},
	}
}
