package carebill

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/invoice"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/types"
	"github.com/xraph/carebill/visit"
)

// GenerateInvoice rolls every approved, uninvoiced billable visit for a
// funder in the period into one draft invoice. Visits are grouped into one
// line per service recipient and care package; the visits move to invoiced
// and carry their line's ID, so voiding the invoice can release exactly
// them.
func (e *Engine) GenerateInvoice(ctx context.Context, funderID id.FunderID, periodStart, periodEnd time.Time) (*invoice.Invoice, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	if periodEnd.Before(periodStart) {
		return nil, fmt.Errorf("%w: invoice period ends before it starts", ErrInvalidInput)
	}

	fnd, err := s.GetFunder(ctx, funderID)
	if err != nil {
		return nil, err
	}

	visits, err := s.ListBillableVisits(ctx, sc.TenantID, visit.ListOpts{
		Status:     visit.StatusApproved,
		FunderID:   funderID,
		From:       periodStart,
		To:         periodEnd,
		Uninvoiced: true,
	})
	if err != nil {
		return nil, fmt.Errorf("carebill: list billable visits: %w", err)
	}
	if len(visits) == 0 {
		return nil, ErrNoBillableVisits
	}

	invID := id.NewInvoiceID()
	lines, links := buildLines(invID, visits)

	subtotal := types.ZeroGBP()
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
	}
	vat := subtotal.MulDecimal(e.vatRate)
	total := subtotal.Add(vat)

	seq, err := s.NextSequence(ctx, sc.TenantID, store.SeqInvoice, periodEnd.Format("200601"))
	if err != nil {
		return nil, fmt.Errorf("carebill: next invoice sequence: %w", err)
	}

	now := e.now()
	due := fnd.DueDate(now)
	inv := &invoice.Invoice{
		Entity:         types.NewEntity(),
		ID:             invID,
		OrganisationID: sc.TenantID,
		FunderID:       funderID,
		Number:         invoice.FormatNumber(orgPrefix(sc), periodEnd, seq),
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		Status:         invoice.StatusDraft,
		Subtotal:       subtotal,
		VATAmount:      vat,
		Total:          total,
		PaidAmount:     types.Zero(subtotal.Currency),
		DueDate:        &due,
		Lines:          lines,
	}

	if err := s.CreateInvoice(ctx, inv, links); err != nil {
		return nil, fmt.Errorf("carebill: create invoice: %w", err)
	}

	e.plugins.EmitInvoiceGenerated(ctx, inv)
	e.log.Info("invoice generated",
		"invoice", inv.Number,
		"funder", funderID.String(),
		"lines", len(lines),
		"visits", len(visits),
		"total", inv.Total.String())
	return inv, nil
}

// buildLines groups visits into invoice lines keyed by recipient and
// package. It returns the lines plus the visit-to-line links for the
// store to apply; the visits themselves are left untouched so a failed
// create changes nothing.
func buildLines(invID id.InvoiceID, visits []*visit.BillableVisit) ([]invoice.InvoiceLine, []store.VisitLink) {
	type key struct {
		recipient string
		pkg       string
	}
	byKey := map[key]*invoice.InvoiceLine{}
	var order []key
	links := make([]store.VisitLink, 0, len(visits))
	for _, b := range visits {
		k := key{recipient: b.ServiceRecipientID, pkg: b.CarePackageID.String()}
		line, ok := byKey[k]
		if !ok {
			line = &invoice.InvoiceLine{
				ID:                 id.NewInvoiceLineID(),
				InvoiceID:          invID,
				ServiceRecipientID: b.ServiceRecipientID,
				CarePackageID:      b.CarePackageID,
				CareSubtotal:       types.Zero(b.LineTotal.Currency),
				MileageSubtotal:    types.Zero(b.LineTotal.Currency),
				LineTotal:          types.Zero(b.LineTotal.Currency),
			}
			byKey[k] = line
			order = append(order, k)
		}

		line.VisitCount++
		line.TotalHours = line.TotalHours.Add(b.Hours())
		if b.MileageMiles != nil {
			line.TotalMiles = line.TotalMiles.Add(*b.MileageMiles)
		}
		// An override folds into the care subtotal: it replaces the whole
		// visit amount, mileage included.
		if b.OverrideAmount != nil {
			line.CareSubtotal = line.CareSubtotal.Add(*b.OverrideAmount)
		} else {
			line.CareSubtotal = line.CareSubtotal.Add(b.LineTotal)
			if b.MileageTotal != nil {
				line.MileageSubtotal = line.MileageSubtotal.Add(*b.MileageTotal)
			}
		}
		line.LineTotal = line.LineTotal.Add(b.Total())

		links = append(links, store.VisitLink{BillableID: b.ID, LineID: line.ID})
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].recipient != order[j].recipient {
			return order[i].recipient < order[j].recipient
		}
		return order[i].pkg < order[j].pkg
	})
	lines := make([]invoice.InvoiceLine, 0, len(order))
	for _, k := range order {
		lines = append(lines, *byKey[k])
	}
	return lines, links
}

// GetInvoice returns one invoice with its lines.
func (e *Engine) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, invID)
}

// ListInvoices lists invoices for the current tenant.
func (e *Engine) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListInvoices(ctx, sc.TenantID, opts)
}

// SendInvoice marks a draft invoice sent. Once sent, amounts are frozen:
// corrections go through credit notes, not edits.
func (e *Engine) SendInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	if err := inv.Transition(invoice.StatusSent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStateTransition, err)
	}
	now := e.now()
	inv.SentAt = &now
	inv.Touch()
	if err := s.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	e.plugins.EmitInvoiceSent(ctx, inv)
	return inv, nil
}

// MarkInvoicePaid records a payment against a sent invoice, received at
// paidAt (the zero time means now). A payment that settles the balance
// moves the invoice to paid; a short payment moves it to partially paid.
// Paying past the total is rejected.
func (e *Engine) MarkInvoicePaid(ctx context.Context, invID id.InvoiceID, amount types.Money, paidAt time.Time, paymentRef string) (*invoice.Invoice, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
	}
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	if inv.Status != invoice.StatusSent && inv.Status != invoice.StatusPartiallyPaid {
		return nil, fmt.Errorf("%w: cannot record payment against a %s invoice", ErrInvalidStateTransition, inv.Status)
	}
	newPaid := inv.PaidAmount.Add(amount)
	if newPaid.GreaterThan(inv.Total) {
		return nil, fmt.Errorf("%w: payment of %s exceeds outstanding balance %s", ErrOverpayment, amount, inv.Outstanding())
	}

	to := invoice.StatusPartiallyPaid
	if newPaid.Equal(inv.Total) {
		to = invoice.StatusPaid
	}
	if err := inv.Transition(to); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStateTransition, err)
	}
	inv.PaidAmount = newPaid
	if paymentRef != "" {
		inv.PaymentRef = paymentRef
	}
	if to == invoice.StatusPaid {
		if paidAt.IsZero() {
			paidAt = e.now()
		}
		inv.PaidAt = &paidAt
	}
	inv.Touch()
	if err := s.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	e.plugins.EmitInvoicePaid(ctx, inv, amount.Amount)
	return inv, nil
}

// VoidInvoice cancels an invoice and releases its visits back to approved,
// making them eligible for a fresh invoice. Paid invoices cannot be voided;
// issue a credit note instead.
func (e *Engine) VoidInvoice(ctx context.Context, invID id.InvoiceID, reason string) (*invoice.Invoice, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: void reason is required", ErrInvalidInput)
	}
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	if !inv.Status.CanTransitionTo(invoice.StatusVoid) {
		return nil, fmt.Errorf("%w: cannot void a %s invoice", ErrInvalidStateTransition, inv.Status)
	}
	if err := s.VoidInvoice(ctx, invID, reason, e.now()); err != nil {
		return nil, fmt.Errorf("carebill: void invoice: %w", err)
	}
	e.plugins.EmitInvoiceVoided(ctx, invID.String(), reason)
	e.log.Info("invoice voided", "invoice", inv.Number, "reason", reason)
	return s.GetInvoice(ctx, invID)
}
