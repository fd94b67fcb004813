package carebill

import (
	"context"
	"fmt"

	"github.com/xraph/carebill/funder"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// CreateFunder registers a billing counterparty.
func (e *Engine) CreateFunder(ctx context.Context, f *funder.Funder) (*funder.Funder, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	if f.ID.IsNil() {
		f.ID = id.NewFunderID()
	}
	f.Entity = types.NewEntity()
	f.Active = true
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.CreateFunder(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// GetFunder returns one funder.
func (e *Engine) GetFunder(ctx context.Context, funderID id.FunderID) (*funder.Funder, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetFunder(ctx, funderID)
}

// ListFunders lists funders for the current tenant.
func (e *Engine) ListFunders(ctx context.Context, opts funder.ListOpts) ([]*funder.Funder, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListFunders(ctx, sc.TenantID, opts)
}

// UpdateFunder updates a funder's details.
func (e *Engine) UpdateFunder(ctx context.Context, f *funder.Funder) (*funder.Funder, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	f.Touch()
	if err := s.UpdateFunder(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeactivateFunder stops new billing against a funder. Existing invoices
// and billable visits are untouched.
func (e *Engine) DeactivateFunder(ctx context.Context, funderID id.FunderID) error {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return err
	}
	return s.DeactivateFunder(ctx, funderID)
}
