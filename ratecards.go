package carebill

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/ratecard"
	"github.com/xraph/carebill/types"
)

// CreateRateCard stores a rate card with its lines and mileage rates. Cards
// are immutable once billed against; a rate change is a new card (see
// DuplicateRateCard) effective from a later date.
func (e *Engine) CreateRateCard(ctx context.Context, card *ratecard.RateCard) (*ratecard.RateCard, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	if card.ID.IsNil() {
		card.ID = id.NewRateCardID()
	}
	card.Entity = types.NewEntity()
	if card.Name == "" {
		return nil, fmt.Errorf("%w: rate card name is required", ErrInvalidInput)
	}
	if card.EffectiveFrom.IsZero() {
		return nil, fmt.Errorf("%w: rate card effective-from date is required", ErrInvalidInput)
	}
	if len(card.Lines) == 0 {
		return nil, fmt.Errorf("%w: rate card needs at least one line", ErrInvalidInput)
	}
	for i := range card.Lines {
		if card.Lines[i].ID.IsNil() {
			card.Lines[i].ID = id.NewRateLineID()
		}
		card.Lines[i].RateCardID = card.ID
		if err := card.Lines[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidInput, i, err)
		}
	}
	for i := range card.MileageRates {
		if card.MileageRates[i].ID.IsNil() {
			card.MileageRates[i].ID = id.NewMileageRateID()
		}
		card.MileageRates[i].RateCardID = card.ID
	}
	if err := s.CreateRateCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// DuplicateRateCard copies an existing card into a new one effective from
// the given date. This is the rate-change path: the old card keeps pricing
// history, the new one takes over from effectiveFrom.
func (e *Engine) DuplicateRateCard(ctx context.Context, cardID id.RateCardID, name string, effectiveFrom time.Time) (*ratecard.RateCard, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	src, err := s.GetRateCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	dup := src.Duplicate(name, effectiveFrom)
	if err := s.CreateRateCard(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// GetRateCard returns one rate card with its lines.
func (e *Engine) GetRateCard(ctx context.Context, cardID id.RateCardID) (*ratecard.RateCard, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetRateCard(ctx, cardID)
}

// ListRateCards lists rate cards for the current tenant.
func (e *Engine) ListRateCards(ctx context.Context, opts ratecard.ListOpts) ([]*ratecard.RateCard, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListRateCards(ctx, sc.TenantID, opts)
}

// ActiveRateCard resolves the card that prices a funder's visits on a date.
func (e *Engine) ActiveRateCard(ctx context.Context, funderID id.FunderID, on time.Time) (*ratecard.RateCard, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.ActiveRateCard(ctx, sc.TenantID, funderID, on)
}

// UpsertBankHoliday records a bank holiday date. The calendar is shared
// reference data: holidays apply to every tenant and a repeat upsert for
// the same region and date is a no-op.
func (e *Engine) UpsertBankHoliday(ctx context.Context, h *ratecard.BankHoliday) error {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return err
	}
	if h.Region == "" {
		h.Region = DefaultHolidayRegion
	}
	if h.Date.IsZero() {
		return fmt.Errorf("%w: bank holiday date is required", ErrInvalidInput)
	}
	if h.ID.IsNil() {
		h.ID = id.NewBankHolidayID()
	}
	return s.UpsertBankHoliday(ctx, h)
}

// ListBankHolidays lists bank holidays for a region and window.
func (e *Engine) ListBankHolidays(ctx context.Context, region string, from, to time.Time) ([]ratecard.BankHoliday, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	if region == "" {
		region = DefaultHolidayRegion
	}
	return s.ListBankHolidays(ctx, region, from, to)
}
