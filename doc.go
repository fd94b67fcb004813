// Package carebill provides a billing and reconciliation engine for
// domiciliary care providers.
//
// CareBill is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Reconciliation of delivered visits against commissioned care packages
//   - Rate resolution by day type, time band and carer count
//   - Integer-only money arithmetic (no floats near rates or totals)
//   - A review workflow: approve, dispute, override, void
//   - Funder invoice generation with per-recipient line grouping
//   - Credit notes against sent invoices
//   - A tenant-pinned, audited store view on every operation
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/carebill"
//	    "github.com/xraph/carebill/store/memory"
//	)
//
//	eng := carebill.New(memory.New())
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop(ctx)
//
// Every operation needs a tenant scope on the context:
//
//	ctx = carebill.WithScope(ctx, carebill.Scope{
//	    TenantID:  "org_abc",
//	    ActorID:   "usr_42",
//	    OrgPrefix: "ACME",
//	})
//
// Reconcile a week of delivered visits, review, then invoice:
//
//	result, err := eng.Reconcile(ctx, carebill.ReconcileParams{
//	    From: weekStart,
//	    To:   weekEnd,
//	})
//
//	eng.ApproveVisits(ctx, ids)
//
//	inv, err := eng.GenerateInvoice(ctx, funderID, weekStart, weekEnd)
//
// # Core Concepts
//
// Funders are the billing counterparties: local authorities, NHS bodies and
// private payers. Rate cards hold their hourly rates keyed by day type,
// optional time band and carer count. Care packages tie a service recipient
// to a funder, a rate card and the billing rules (time basis, rounding,
// minimums, carer defaults) commissioned for that recipient.
//
// Reconciliation turns each delivered visit into exactly one billable
// visit: priced, pending review, and idempotent under re-runs. Approved
// visits roll up into draft invoices; sent invoices are immutable and
// corrected only by credit notes.
//
// All monetary calculations use integer arithmetic. The Money type holds
// amounts in the smallest currency unit (pence for GBP) and per-visit
// totals divide by 60 exactly once, rounding half away from zero.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	bvst_01h2xcejqtf2nbrexx3vqjhp41  // Billable visit ID
//	inv_01h455vb4pex5vsknk084sn02q   // Invoice ID
//	cn_01h455vb4pex5vsknk084sn02q    // Credit note ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package carebill
