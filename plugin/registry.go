package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onVisitReconciled    []OnVisitReconciled
	onReconcileCompleted []OnReconcileCompleted
	onVisitStatusChanged []OnVisitStatusChanged
	onInvoiceGenerated   []OnInvoiceGenerated
	onInvoiceSent        []OnInvoiceSent
	onInvoicePaid        []OnInvoicePaid
	onInvoiceVoided      []OnInvoiceVoided
	onCreditNoteIssued   []OnCreditNoteIssued
	onCreditNoteSent     []OnCreditNoteSent
	onAuditRecorded      []OnAuditRecorded
	onAuditFailed        []OnAuditFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnVisitReconciled); ok {
		r.onVisitReconciled = append(r.onVisitReconciled, v)
	}
	if v, ok := p.(OnReconcileCompleted); ok {
		r.onReconcileCompleted = append(r.onReconcileCompleted, v)
	}
	if v, ok := p.(OnVisitStatusChanged); ok {
		r.onVisitStatusChanged = append(r.onVisitStatusChanged, v)
	}
	if v, ok := p.(OnInvoiceGenerated); ok {
		r.onInvoiceGenerated = append(r.onInvoiceGenerated, v)
	}
	if v, ok := p.(OnInvoiceSent); ok {
		r.onInvoiceSent = append(r.onInvoiceSent, v)
	}
	if v, ok := p.(OnInvoicePaid); ok {
		r.onInvoicePaid = append(r.onInvoicePaid, v)
	}
	if v, ok := p.(OnInvoiceVoided); ok {
		r.onInvoiceVoided = append(r.onInvoiceVoided, v)
	}
	if v, ok := p.(OnCreditNoteIssued); ok {
		r.onCreditNoteIssued = append(r.onCreditNoteIssued, v)
	}
	if v, ok := p.(OnCreditNoteSent); ok {
		r.onCreditNoteSent = append(r.onCreditNoteSent, v)
	}
	if v, ok := p.(OnAuditRecorded); ok {
		r.onAuditRecorded = append(r.onAuditRecorded, v)
	}
	if v, ok := p.(OnAuditFailed); ok {
		r.onAuditFailed = append(r.onAuditFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnVisitReconciled)(nil)).Elem(), "OnVisitReconciled")
	checkInterface(reflect.TypeOf((*OnReconcileCompleted)(nil)).Elem(), "OnReconcileCompleted")
	checkInterface(reflect.TypeOf((*OnVisitStatusChanged)(nil)).Elem(), "OnVisitStatusChanged")
	checkInterface(reflect.TypeOf((*OnInvoiceGenerated)(nil)).Elem(), "OnInvoiceGenerated")
	checkInterface(reflect.TypeOf((*OnInvoicePaid)(nil)).Elem(), "OnInvoicePaid")
	checkInterface(reflect.TypeOf((*OnCreditNoteIssued)(nil)).Elem(), "OnCreditNoteIssued")
	checkInterface(reflect.TypeOf((*OnAuditRecorded)(nil)).Elem(), "OnAuditRecorded")
	checkInterface(reflect.TypeOf((*OnAuditFailed)(nil)).Elem(), "OnAuditFailed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitVisitReconciled calls OnVisitReconciled for all plugins that implement it.
func (r *Registry) EmitVisitReconciled(ctx context.Context, billable interface{}) {
	r.mu.RLock()
	plugins := r.onVisitReconciled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnVisitReconciled(ctx, billable)
		}); err != nil {
			r.logger.Warn("plugin OnVisitReconciled failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitReconcileCompleted calls OnReconcileCompleted for all plugins that implement it.
func (r *Registry) EmitReconcileCompleted(ctx context.Context, generated, skipped, issues int) {
	r.mu.RLock()
	plugins := r.onReconcileCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnReconcileCompleted(ctx, generated, skipped, issues)
		}); err != nil {
			r.logger.Warn("plugin OnReconcileCompleted failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitVisitStatusChanged calls OnVisitStatusChanged for all plugins that implement it.
func (r *Registry) EmitVisitStatusChanged(ctx context.Context, billable interface{}, from, to string) {
	r.mu.RLock()
	plugins := r.onVisitStatusChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnVisitStatusChanged(ctx, billable, from, to)
		}); err != nil {
			r.logger.Warn("plugin OnVisitStatusChanged failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitInvoiceGenerated calls OnInvoiceGenerated for all plugins that implement it.
func (r *Registry) EmitInvoiceGenerated(ctx context.Context, inv interface{}) {
	r.mu.RLock()
	plugins := r.onInvoiceGenerated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceGenerated(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceGenerated failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitInvoiceSent calls OnInvoiceSent for all plugins that implement it.
func (r *Registry) EmitInvoiceSent(ctx context.Context, inv interface{}) {
	r.mu.RLock()
	plugins := r.onInvoiceSent
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceSent(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceSent failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitInvoicePaid calls OnInvoicePaid for all plugins that implement it.
func (r *Registry) EmitInvoicePaid(ctx context.Context, inv interface{}, amountPence int64) {
	r.mu.RLock()
	plugins := r.onInvoicePaid
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoicePaid(ctx, inv, amountPence)
		}); err != nil {
			r.logger.Warn("plugin OnInvoicePaid failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitInvoiceVoided calls OnInvoiceVoided for all plugins that implement it.
func (r *Registry) EmitInvoiceVoided(ctx context.Context, invoiceID, reason string) {
	r.mu.RLock()
	plugins := r.onInvoiceVoided
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceVoided(ctx, invoiceID, reason)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceVoided failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitCreditNoteIssued calls OnCreditNoteIssued for all plugins that implement it.
func (r *Registry) EmitCreditNoteIssued(ctx context.Context, note interface{}) {
	r.mu.RLock()
	plugins := r.onCreditNoteIssued
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreditNoteIssued(ctx, note)
		}); err != nil {
			r.logger.Warn("plugin OnCreditNoteIssued failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitCreditNoteSent calls OnCreditNoteSent for all plugins that implement it.
func (r *Registry) EmitCreditNoteSent(ctx context.Context, note interface{}) {
	r.mu.RLock()
	plugins := r.onCreditNoteSent
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCreditNoteSent(ctx, note)
		}); err != nil {
			r.logger.Warn("plugin OnCreditNoteSent failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitAuditRecorded calls OnAuditRecorded for all plugins that implement it.
func (r *Registry) EmitAuditRecorded(ctx context.Context, entry interface{}) {
	r.mu.RLock()
	plugins := r.onAuditRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAuditRecorded(ctx, entry)
		}); err != nil {
			r.logger.Warn("plugin OnAuditRecorded failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitAuditFailed calls OnAuditFailed for all plugins that implement it.
func (r *Registry) EmitAuditFailed(ctx context.Context, entry interface{}, failure error) {
	r.mu.RLock()
	plugins := r.onAuditFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAuditFailed(ctx, entry, failure)
		}); err != nil {
			r.logger.Warn("plugin OnAuditFailed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the billing pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
