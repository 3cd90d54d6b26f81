package gateway

import (
	"context"
	"sync"

	"github.com/jrsteele09/claims-web/notify"
)

type contextKey string

const scopeKey contextKey = "gateway_scope"

// Scope is what the transport needs to know about the request's origin: which
// browser session issued it, from which view, and where to send navigations
// and notifications.
type Scope struct {
	SessionID string
	View      string
	Navigator Navigator
	Notifier  notify.Notifier
}

// WithScope attaches scope to ctx. Outgoing API requests made with the
// returned context are policed on behalf of that browser session.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// ScopeFrom returns the scope attached to ctx, if any
func ScopeFrom(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(scopeKey).(Scope)
	return scope, ok
}

// Navigator receives forced navigations decided inside the network layer
type Navigator interface {
	Navigate(location string)
}

// Navigation records the last forced navigation of one inbound request so the
// handler can honour it once its API call returns.
type Navigation struct {
	mu       sync.Mutex
	location string
}

func (n *Navigation) Navigate(location string) {
	n.mu.Lock()
	n.location = location
	n.mu.Unlock()
}

// Target returns the recorded location
func (n *Navigation) Target() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location, n.location != ""
}
