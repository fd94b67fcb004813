package carebill

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/carebill/audit"
	"github.com/xraph/carebill/invoice"
	"github.com/xraph/carebill/types"
)

// RevenueByPeriod rolls up non-void invoices into one row per calendar
// month between from and to.
func (e *Engine) RevenueByPeriod(ctx context.Context, from, to time.Time) ([]invoice.PeriodRevenue, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.RevenueByPeriod(ctx, sc.TenantID, from, to)
}

// RevenueByFunder rolls up non-void invoices into one row per funder.
func (e *Engine) RevenueByFunder(ctx context.Context, from, to time.Time) ([]invoice.FunderRevenue, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.RevenueByFunder(ctx, sc.TenantID, from, to)
}

// AgedDebtBucket is one ageing band of outstanding invoice balances.
type AgedDebtBucket struct {
	Label       string      `json:"label"`
	Outstanding types.Money `json:"outstanding"`
	Count       int         `json:"count"`
}

// AgedDebtReport is outstanding balances bucketed by days past due.
type AgedDebtReport struct {
	AsOf    time.Time        `json:"as_of"`
	Buckets []AgedDebtBucket `json:"buckets"`
	Total   types.Money      `json:"total"`
}

// AgedDebt buckets outstanding invoice balances by how far past due they
// are as of the given date: current (not yet due or up to 30 days), 31-60,
// 61-90, and over 90 days.
func (e *Engine) AgedDebt(ctx context.Context, asOf time.Time) (*AgedDebtReport, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := s.ListInvoices(ctx, sc.TenantID, invoice.ListOpts{OutstandingOnly: true})
	if err != nil {
		return nil, fmt.Errorf("carebill: list outstanding invoices: %w", err)
	}

	report := &AgedDebtReport{
		AsOf: asOf,
		Buckets: []AgedDebtBucket{
			{Label: "current", Outstanding: types.ZeroGBP()},
			{Label: "31-60", Outstanding: types.ZeroGBP()},
			{Label: "61-90", Outstanding: types.ZeroGBP()},
			{Label: "90+", Outstanding: types.ZeroGBP()},
		},
		Total: types.ZeroGBP(),
	}

	for _, inv := range invoices {
		out := inv.Outstanding()
		if !out.IsPositive() {
			continue
		}
		idx := 0
		if inv.DueDate != nil {
			days := int(asOf.Sub(*inv.DueDate).Hours() / 24)
			switch {
			case days <= 30:
				idx = 0
			case days <= 60:
				idx = 1
			case days <= 90:
				idx = 2
			default:
				idx = 3
			}
		}
		report.Buckets[idx].Outstanding = report.Buckets[idx].Outstanding.Add(out)
		report.Buckets[idx].Count++
		report.Total = report.Total.Add(out)
	}
	return report, nil
}

// AuditTrail lists audit entries for the current tenant.
func (e *Engine) AuditTrail(ctx context.Context, opts audit.ListOpts) ([]*audit.Entry, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListAudit(ctx, sc.TenantID, opts)
}
