package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the CareBill store.
var Migrations = migrate.NewGroup("carebill")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_carebill_funders",
			Version: "20250301000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carebill_funders (
    id                 TEXT PRIMARY KEY,
    organisation_id    TEXT NOT NULL DEFAULT '',
    name               TEXT NOT NULL DEFAULT '',
    type               TEXT NOT NULL DEFAULT 'local_authority',
    payment_terms_days INT NOT NULL DEFAULT 30,
    invoice_frequency  TEXT NOT NULL DEFAULT 'monthly',
    default_time_basis TEXT NOT NULL DEFAULT 'scheduled',
    email              TEXT NOT NULL DEFAULT '',
    reference          TEXT NOT NULL DEFAULT '',
    active             BOOLEAN NOT NULL DEFAULT TRUE,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_funders_org ON carebill_funders (organisation_id);
CREATE INDEX IF NOT EXISTS idx_carebill_funders_org_active ON carebill_funders (organisation_id, active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS carebill_funders`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_carebill_rate_cards",
			Version: "20250301000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carebill_rate_cards (
    id              TEXT PRIMARY KEY,
    organisation_id TEXT NOT NULL DEFAULT '',
    funder_id       TEXT,
    name            TEXT NOT NULL DEFAULT '',
    effective_from  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    effective_to    TIMESTAMPTZ,
    lines           JSONB NOT NULL DEFAULT '[]',
    mileage_rates   JSONB NOT NULL DEFAULT '[]',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_rate_cards_org ON carebill_rate_cards (organisation_id);
CREATE INDEX IF NOT EXISTS idx_carebill_rate_cards_effective ON carebill_rate_cards (organisation_id, effective_from);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS carebill_rate_cards`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_carebill_bank_holidays",
			Version: "20250301000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carebill_bank_holidays (
    id     TEXT PRIMARY KEY,
    date   TIMESTAMPTZ NOT NULL,
    region TEXT NOT NULL DEFAULT 'england-and-wales',
    name   TEXT NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_carebill_bank_holidays_region_date ON carebill_bank_holidays (region, date);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS carebill_bank_holidays`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_carebill_care_packages",
			Version: "20250301000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carebill_care_packages (
    id                         TEXT PRIMARY KEY,
    organisation_id            TEXT NOT NULL DEFAULT '',
    service_recipient_id       TEXT NOT NULL DEFAULT '',
    funder_id                  TEXT NOT NULL DEFAULT '',
    rate_card_id               TEXT NOT NULL DEFAULT '',
    time_basis                 TEXT NOT NULL DEFAULT 'scheduled',
    rounding_increment_minutes INT NOT NULL DEFAULT 0,
    minimum_billable_minutes   INT NOT NULL DEFAULT 0,
    default_carers_required    INT NOT NULL DEFAULT 1,
    mileage_billable           BOOLEAN NOT NULL DEFAULT FALSE,
    start_date                 TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    end_date                   TIMESTAMPTZ,
    status                     TEXT NOT NULL DEFAULT 'active',
    created_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_packages_org ON carebill_care_packages (organisation_id);
CREATE INDEX IF NOT EXISTS idx_carebill_packages_funder ON carebill_care_packages (organisation_id, funder_id);
CREATE INDEX IF NOT EXISTS idx_carebill_packages_recipient ON carebill_care_packages (organisation_id, service_recipient_id);

CREATE TABLE IF NOT EXISTS carebill_visit_schedules (
    id              TEXT PRIMARY KEY,
    care_package_id TEXT NOT NULL DEFAULT '',
    weekday         INT NOT NULL DEFAULT 0,
    start_minutes   INT NOT NULL DEFAULT 0,
    end_minutes     INT NOT NULL DEFAULT 0,
    carers_required INT NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_carebill_schedules_package ON carebill_visit_schedules (care_package_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS carebill_visit_schedules;
DROP TABLE IF EXISTS carebill_care_packages;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_carebill_visits",
			Version: "20250301000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carebill_visit_records (
    id              TEXT PRIMARY KEY,
    organisation_id TEXT NOT NULL DEFAULT '',
    care_package_id TEXT NOT NULL DEFAULT '',
    staff_id        TEXT NOT NULL DEFAULT '',
    scheduled_start TIMESTAMPTZ NOT NULL,
    scheduled_end   TIMESTAMPTZ NOT NULL,
    actual_start    TIMESTAMPTZ,
    actual_end      TIMESTAMPTZ,
    mileage_miles   NUMERIC(8,2),
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_visits_org_start ON carebill_visit_records (organisation_id, scheduled_start);
CREATE INDEX IF NOT EXISTS idx_carebill_visits_package ON carebill_visit_records (care_package_id);

CREATE TABLE IF NOT EXISTS carebill_billable_visits (
    id                   TEXT PRIMARY KEY,
    organisation_id      TEXT NOT NULL DEFAULT '',
    visit_record_id      TEXT NOT NULL,
    care_package_id      TEXT NOT NULL DEFAULT '',
    funder_id            TEXT NOT NULL DEFAULT '',
    service_recipient_id TEXT NOT NULL DEFAULT '',
    visit_date           TIMESTAMPTZ NOT NULL,
    day_type             TEXT NOT NULL DEFAULT 'weekday',
    billing_start        TIMESTAMPTZ NOT NULL,
    billing_end          TIMESTAMPTZ NOT NULL,
    duration_minutes     INT NOT NULL DEFAULT 0,
    carers_required      INT NOT NULL DEFAULT 1,
    rate_per_hour_pence  BIGINT NOT NULL DEFAULT 0,
    line_total_pence     BIGINT NOT NULL DEFAULT 0,
    currency             TEXT NOT NULL DEFAULT 'gbp',
    mileage_miles        NUMERIC(8,2),
    mileage_rate_pence   BIGINT,
    mileage_total_pence  BIGINT,
    override_pence       BIGINT,
    override_reason      TEXT NOT NULL DEFAULT '',
    dispute_reason       TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'pending',
    invoice_line_id      TEXT,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_carebill_billable_visit_record ON carebill_billable_visits (visit_record_id);
CREATE INDEX IF NOT EXISTS idx_carebill_billable_org_status ON carebill_billable_visits (organisation_id, status);
CREATE INDEX IF NOT EXISTS idx_carebill_billable_invoice_line ON carebill_billable_visits (invoice_line_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS carebill_billable_visits;
DROP TABLE IF EXISTS carebill_visit_records;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_carebill_invoices",
			Version: "20250301000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carebill_invoices (
    id              TEXT PRIMARY KEY,
    organisation_id TEXT NOT NULL DEFAULT '',
    funder_id       TEXT NOT NULL DEFAULT '',
    number          TEXT NOT NULL DEFAULT '',
    period_start    TIMESTAMPTZ NOT NULL,
    period_end      TIMESTAMPTZ NOT NULL,
    status          TEXT NOT NULL DEFAULT 'draft',
    subtotal_pence  BIGINT NOT NULL DEFAULT 0,
    vat_pence       BIGINT NOT NULL DEFAULT 0,
    total_pence     BIGINT NOT NULL DEFAULT 0,
    paid_pence      BIGINT NOT NULL DEFAULT 0,
    currency        TEXT NOT NULL DEFAULT 'gbp',
    payment_ref     TEXT NOT NULL DEFAULT '',
    due_date        TIMESTAMPTZ,
    sent_at         TIMESTAMPTZ,
    paid_at         TIMESTAMPTZ,
    voided_at       TIMESTAMPTZ,
    void_reason     TEXT NOT NULL DEFAULT '',
    lines           JSONB NOT NULL DEFAULT '[]',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_carebill_invoices_number ON carebill_invoices (organisation_id, number);
CREATE INDEX IF NOT EXISTS idx_carebill_invoices_funder ON carebill_invoices (organisation_id, funder_id);
CREATE INDEX IF NOT EXISTS idx_carebill_invoices_status ON carebill_invoices (organisation_id, status);

CREATE TABLE IF NOT EXISTS carebill_credit_notes (
    id              TEXT PRIMARY KEY,
    organisation_id TEXT NOT NULL DEFAULT '',
    invoice_id      TEXT NOT NULL DEFAULT '',
    number          TEXT NOT NULL DEFAULT '',
    amount_pence    BIGINT NOT NULL DEFAULT 0,
    currency        TEXT NOT NULL DEFAULT 'gbp',
    reason          TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'draft',
    sent_at         TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_credit_notes_invoice ON carebill_credit_notes (invoice_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS carebill_credit_notes;
DROP TABLE IF EXISTS carebill_invoices;
`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_carebill_sequences",
			Version: "20250301000007",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carebill_sequences (
    tenant_id  TEXT NOT NULL,
    kind       TEXT NOT NULL,
    year_month TEXT NOT NULL,
    last_value BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (tenant_id, kind, year_month)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS carebill_sequences`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_carebill_audit_log",
			Version: "20250301000008",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS carebill_audit_log (
    id              TEXT PRIMARY KEY,
    organisation_id TEXT NOT NULL DEFAULT '',
    actor_id        TEXT NOT NULL DEFAULT '',
    entity_type     TEXT NOT NULL DEFAULT '',
    entity_id       TEXT NOT NULL DEFAULT '',
    action          TEXT NOT NULL DEFAULT '',
    changes         JSONB,
    ip              TEXT NOT NULL DEFAULT '',
    user_agent      TEXT NOT NULL DEFAULT '',
    at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_carebill_audit_org_at ON carebill_audit_log (organisation_id, at);
CREATE INDEX IF NOT EXISTS idx_carebill_audit_entity ON carebill_audit_log (organisation_id, entity_type, entity_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS carebill_audit_log`)
				return err
			},
		},
	)
}
