// Package gateway is the single choke point between the web client and the
// claims API. Every outgoing request passes through Transport exactly once:
// the bearer token is attached on the way out, and authentication failures,
// server faults and timeouts are policed on the way back.
package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/jrsteele09/claims-web/notify"
	"github.com/jrsteele09/claims-web/storage"
	"github.com/jrsteele09/claims-web/token"
	"github.com/rs/zerolog/log"
)

// SessionStorage gives access to the durable storage of one browser session
type SessionStorage interface {
	Storage(sessionID string) storage.Store
}

// Invalidator is told when the transport cleared a session behind the
// session store's back
type Invalidator interface {
	Invalidate(ctx context.Context, sessionID string) error
}

// Transport is an http.RoundTripper that authenticates and polices API calls
type Transport struct {
	Base        http.RoundTripper // Defaults to http.DefaultTransport
	Sessions    SessionStorage
	Invalidator Invalidator // Optional
	SignIn      string      // Sign-in view, the target of forced navigations
}

// New wraps base
func New(base http.RoundTripper, sessions SessionStorage, invalidator Invalidator, signIn string) *Transport {
	return &Transport{
		Base:        base,
		Sessions:    sessions,
		Invalidator: invalidator,
		SignIn:      signIn,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	scope, _ := ScopeFrom(ctx)

	outgoing := req
	if rawToken := t.readToken(ctx, scope.SessionID); rawToken != "" {
		// A RoundTripper must not modify the caller's request
		outgoing = req.Clone(ctx)
		token.Bearer(rawToken, nil).SetAuthHeader(outgoing)
	}

	resp, err := t.base().RoundTrip(outgoing)
	if err != nil {
		if isTimeout(ctx, err) {
			log.Warn().Err(err).Str("url", req.URL.Redacted()).Msg("[Gateway] request timed out")
			t.notify(scope, notify.ConnectionTimeout())
		}
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		t.unauthorized(ctx, scope, req.URL)
	case resp.StatusCode >= http.StatusInternalServerError:
		log.Warn().Int("status", resp.StatusCode).Str("url", req.URL.Redacted()).Msg("[Gateway] server error")
		t.notify(scope, notify.ServerError())
	}
	return resp, nil
}

// readToken reads from durable storage, never from in-memory session state
func (t *Transport) readToken(ctx context.Context, sessionID string) string {
	if sessionID == "" || t.Sessions == nil {
		return ""
	}
	rawToken, ok, err := t.Sessions.Storage(sessionID).Get(ctx, storage.TokenKey)
	if err != nil {
		log.Err(err).Msg("[Gateway] failed to read token, sending request without it")
		return ""
	}
	if !ok {
		return ""
	}
	return rawToken
}

// unauthorized treats the session as invalid whichever endpoint answered 401
func (t *Transport) unauthorized(ctx context.Context, scope Scope, endpoint *url.URL) {
	log.Info().Str("url", endpoint.Redacted()).Msg("[Gateway] 401 from API, clearing session")

	if scope.SessionID != "" && t.Sessions != nil {
		// Clear even if the caller has already given up
		clearCtx := context.WithoutCancel(ctx)
		if err := storage.ClearSession(clearCtx, t.Sessions.Storage(scope.SessionID)); err != nil {
			log.Err(err).Msg("[Gateway] failed to clear session")
		}
		if t.Invalidator != nil {
			if err := t.Invalidator.Invalidate(clearCtx, scope.SessionID); err != nil {
				log.Err(err).Msg("[Gateway] failed to invalidate session")
			}
		}
	}

	if scope.Navigator == nil || t.onSignInView(scope.View) {
		return
	}
	scope.Navigator.Navigate(t.SignIn)
}

func (t *Transport) onSignInView(view string) bool {
	if view == "" {
		return false
	}
	u, err := url.Parse(view)
	if err != nil {
		return false
	}
	return u.Path == t.SignIn
}

func (t *Transport) notify(scope Scope, n notify.Notification) {
	if scope.Notifier != nil {
		scope.Notifier.Notify(n)
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// isTimeout reports client-side timeouts and aborts. A caller that cancelled
// on purpose, such as a view going away, is not a connection problem.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
