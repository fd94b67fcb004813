// Package audit models the append-only trail of money-relevant writes.
package audit

import (
	"context"
	"time"

	"github.com/xraph/carebill/id"
)

// Action classifies a trail entry.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entity type labels used in trail entries.
const (
	EntityFunder        = "funder"
	EntityRateCard      = "rate_card"
	EntityCarePackage   = "care_package"
	EntityVisitSchedule = "visit_schedule"
	EntityVisitRecord   = "visit_record"
	EntityBillableVisit = "billable_visit"
	EntityInvoice       = "invoice"
	EntityCreditNote    = "credit_note"
)

// FieldChange is one field's before and after values.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Entry is one audited write. Entries are appended after the primary write
// commits and are never updated or deleted.
type Entry struct {
	ID             id.AuditEntryID        `json:"id"`
	OrganisationID string                 `json:"organisation_id"`
	ActorID        string                 `json:"actor_id,omitempty"`
	EntityType     string                 `json:"entity_type"`
	EntityID       string                 `json:"entity_id"`
	Action         Action                 `json:"action"`
	Changes        map[string]FieldChange `json:"changes,omitempty"`
	IP             string                 `json:"ip,omitempty"`
	UserAgent      string                 `json:"user_agent,omitempty"`
	At             time.Time              `json:"at"`
}

// Store is the audit trail persistence surface. Append-only: there is no
// update or delete.
type Store interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, tenantID string, opts ListOpts) ([]*Entry, error)
}

// ListOpts filters audit listings.
type ListOpts struct {
	EntityType string
	EntityID   string
	ActorID    string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}
