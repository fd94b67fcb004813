package carebill

import (
	"context"
	"fmt"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
	"github.com/xraph/carebill/visit"
)

// GetBillableVisit returns one billable visit.
func (e *Engine) GetBillableVisit(ctx context.Context, billableID id.BillableID) (*visit.BillableVisit, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetBillableVisit(ctx, billableID)
}

// ListBillableVisits lists billable visits for the current tenant.
func (e *Engine) ListBillableVisits(ctx context.Context, opts visit.ListOpts) ([]*visit.BillableVisit, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListBillableVisits(ctx, sc.TenantID, opts)
}

// ApproveVisit moves a billable visit to approved, making it eligible for
// invoicing.
func (e *Engine) ApproveVisit(ctx context.Context, billableID id.BillableID) (*visit.BillableVisit, error) {
	return e.transitionVisit(ctx, billableID, visit.StatusApproved, func(b *visit.BillableVisit) {
		b.DisputeReason = ""
	})
}

// ApproveVisits approves a batch. It stops at the first failure and reports
// how many approvals landed before it; those stay approved.
func (e *Engine) ApproveVisits(ctx context.Context, billableIDs []id.BillableID) (int, error) {
	for i, billableID := range billableIDs {
		if _, err := e.ApproveVisit(ctx, billableID); err != nil {
			return i, fmt.Errorf("carebill: approve visit %s: %w", billableID, err)
		}
	}
	return len(billableIDs), nil
}

// BulkApproveVisits approves every pending visit matching the filter and
// reports how many it approved. The status filter is pinned to pending, so
// invoiced or disputed visits never match.
func (e *Engine) BulkApproveVisits(ctx context.Context, opts visit.ListOpts) (int, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return 0, err
	}
	opts.Status = visit.StatusPending
	visits, err := s.ListBillableVisits(ctx, sc.TenantID, opts)
	if err != nil {
		return 0, fmt.Errorf("carebill: list billable visits: %w", err)
	}
	for i, b := range visits {
		if _, err := e.ApproveVisit(ctx, b.ID); err != nil {
			return i, fmt.Errorf("carebill: approve visit %s: %w", b.ID, err)
		}
	}
	return len(visits), nil
}

// DisputeVisit flags an approved visit as disputed. Disputed visits never
// reach an invoice until re-approved.
func (e *Engine) DisputeVisit(ctx context.Context, billableID id.BillableID, reason string) (*visit.BillableVisit, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: dispute reason is required", ErrInvalidInput)
	}
	return e.transitionVisit(ctx, billableID, visit.StatusDisputed, func(b *visit.BillableVisit) {
		b.DisputeReason = reason
	})
}

// VoidVisit removes a billable visit from billing entirely. Invoiced visits
// cannot be voided; void the invoice first.
func (e *Engine) VoidVisit(ctx context.Context, billableID id.BillableID) (*visit.BillableVisit, error) {
	return e.transitionVisit(ctx, billableID, visit.StatusVoid, nil)
}

// OverrideVisit replaces a visit's computed amount with a manual one. The
// computed rate, duration and mileage stay on the row so the override is
// explainable later. An override requires a reason, always.
func (e *Engine) OverrideVisit(ctx context.Context, billableID id.BillableID, amount types.Money, reason string) (*visit.BillableVisit, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: override reason is required", ErrInvalidInput)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: override amount must not be negative", ErrInvalidInput)
	}
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.GetBillableVisit(ctx, billableID)
	if err != nil {
		return nil, err
	}
	if b.Status == visit.StatusInvoiced || b.Status == visit.StatusVoid {
		return nil, fmt.Errorf("%w: cannot override a %s visit", ErrInvalidStateTransition, b.Status)
	}
	b.OverrideAmount = &amount
	b.OverrideReason = reason
	b.Touch()
	if err := s.UpdateBillableVisit(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ClearOverride removes a manual override, restoring the computed amount.
func (e *Engine) ClearOverride(ctx context.Context, billableID id.BillableID) (*visit.BillableVisit, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.GetBillableVisit(ctx, billableID)
	if err != nil {
		return nil, err
	}
	if b.Status == visit.StatusInvoiced || b.Status == visit.StatusVoid {
		return nil, fmt.Errorf("%w: cannot clear override on a %s visit", ErrInvalidStateTransition, b.Status)
	}
	b.OverrideAmount = nil
	b.OverrideReason = ""
	b.Touch()
	if err := s.UpdateBillableVisit(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (e *Engine) transitionVisit(ctx context.Context, billableID id.BillableID, to visit.Status, mutate func(*visit.BillableVisit)) (*visit.BillableVisit, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.GetBillableVisit(ctx, billableID)
	if err != nil {
		return nil, err
	}
	from := b.Status
	if err := b.Transition(to); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStateTransition, err)
	}
	if mutate != nil {
		mutate(b)
	}
	b.Touch()
	if err := s.UpdateBillableVisit(ctx, b); err != nil {
		return nil, err
	}
	e.plugins.EmitVisitStatusChanged(ctx, b, string(from), string(to))
	return b, nil
}
