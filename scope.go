package carebill

import (
	"context"

	"github.com/xraph/carebill/store/scoped"
)

// Scope identifies the tenant and actor behind a request. Every engine
// operation requires one on the context.
type Scope = scoped.Scope

type scopeKey struct{}

// WithScope returns a context carrying the scope.
func WithScope(ctx context.Context, sc Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, sc)
}

// ScopeFrom extracts the scope from the context.
func ScopeFrom(ctx context.Context) (Scope, bool) {
	sc, ok := ctx.Value(scopeKey{}).(Scope)
	return sc, ok
}
