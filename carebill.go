package carebill

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/audit"
	"github.com/xraph/carebill/plugin"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/store/scoped"
)

// Engine is the billing engine. It is safe for concurrent use; every
// operation reads its tenant scope from the context and works through a
// tenant-pinned, audited view of the store.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	log     *slog.Logger
	now     func() time.Time

	devChecks      bool
	disableMigrate bool
	vatRate        decimal.Decimal
	started        bool
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithPlugin registers a plugin at construction.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		if err := e.plugins.Register(p); err != nil {
			e.log.Warn("plugin registration failed", "plugin", p.Name(), "error", err)
		}
	}
}

// WithDevChecks enables post-read tenant verification on single-row
// lookups. Meant for development and staging.
func WithDevChecks() Option {
	return func(e *Engine) { e.devChecks = true }
}

// WithoutMigrate skips the schema migration on Start, for deployments
// that run migrations out of band.
func WithoutMigrate() Option {
	return func(e *Engine) { e.disableMigrate = true }
}

// WithVATRate sets the VAT rate applied at invoice generation, as a
// fraction (0.2 for 20%). Domiciliary personal care is VAT exempt in the
// UK, so the default is zero.
func WithVATRate(rate decimal.Decimal) Option {
	return func(e *Engine) { e.vatRate = rate }
}

// WithClock overrides the engine's time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine on top of a store driver.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		log:     slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
		vatRate: decimal.Zero,
	}
	e.plugins = plugin.NewRegistry()
	for _, opt := range opts {
		opt(e)
	}
	e.plugins.WithLogger(e.log)
	return e
}

// Start migrates the schema (unless disabled) and notifies plugins.
func (e *Engine) Start(ctx context.Context) error {
	if !e.disableMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("carebill: migrate: %w", err)
		}
	}
	e.started = true
	e.plugins.EmitInit(ctx, e)
	e.log.Info("carebill engine started")
	return nil
}

// Stop notifies plugins and closes the store.
func (e *Engine) Stop(ctx context.Context) error {
	e.plugins.EmitShutdown(ctx)
	e.started = false
	return e.store.Close()
}

// Health reports engine liveness via the store.
func (e *Engine) Health(ctx context.Context) error {
	if !e.started {
		return ErrStoreNotReady
	}
	return e.store.Ping(ctx)
}

// Plugins exposes the plugin registry for registration after New.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Store exposes the raw, unscoped store. Callers almost always want the
// scope-bound operations on the engine instead.
func (e *Engine) Store() store.Store { return e.store }

// scopedStore binds the store to the scope on the context. Every engine
// operation goes through this; no scope, no data.
func (e *Engine) scopedStore(ctx context.Context) (store.Store, Scope, error) {
	sc, ok := ScopeFrom(ctx)
	if !ok || sc.TenantID == "" {
		return nil, Scope{}, ErrNoScope
	}
	opts := []scoped.Option{
		scoped.WithLogger(e.log),
		scoped.WithClock(e.now),
		scoped.WithAuditFailureHandler(func(ctx context.Context, entry *audit.Entry, err error) {
			e.plugins.EmitAuditFailed(ctx, entry, err)
		}),
	}
	if e.devChecks {
		opts = append(opts, scoped.WithDevChecks())
	}
	return scoped.New(e.store, sc, opts...), sc, nil
}

// orgPrefix returns the scope's document-number prefix, deriving one from
// the tenant ID when the scope does not carry one.
func orgPrefix(sc Scope) string {
	if sc.OrgPrefix != "" {
		return sc.OrgPrefix
	}
	var b strings.Builder
	for _, r := range sc.TenantID {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == 4 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "ORG"
	}
	return strings.ToUpper(b.String())
}
