package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/claims-web/gateway"
	"github.com/jrsteele09/claims-web/guard"
	"github.com/jrsteele09/claims-web/session"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySessionID stores the browser session ID
	ContextKeySessionID ContextKey = "session_id"
	// ContextKeySession stores the restored *session.Store
	ContextKeySession ContextKey = "session"
)

// BrowserSessionMiddleware identifies the browser session from its cookie,
// issuing a new ID when the cookie is missing or not one of ours
func (s *Server) BrowserSessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if cookie, err := r.Cookie(browserSessionCookieName); err == nil {
			if id, err := uuid.Parse(cookie.Value); err == nil {
				sessionID = id.String()
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		s.SetBrowserSessionCookie(w, r, sessionID, s.config.GetSessionCookieMaxAge())

		ctx := context.WithValue(r.Context(), ContextKeySessionID, sessionID)
		next(w, r.WithContext(ctx))
	}
}

// RestoreSessionMiddleware holds the request until the browser session has
// been restored from storage. No view is decided before that.
func (s *Server) RestoreSessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := s.sessions.Get(r.Context(), sessionIDFrom(r.Context()))
		if err != nil {
			if r.Context().Err() != nil {
				return // Client went away while waiting
			}
			log.Err(err).Str("path", r.URL.Path).Msg("[Server RestoreSessionMiddleware] failed to restore session")
			http.Error(w, "503 - Session storage unavailable", http.StatusServiceUnavailable)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeySession, store)
		next(w, r.WithContext(ctx))
	}
}

// Guard renders the view only when gate allows it, otherwise redirects
func (s *Server) Guard(gate guard.Gate) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			store := sessionFrom(r.Context())
			decision := gate.Decide(store != nil && store.IsAuthenticated(), r.URL.RequestURI())
			if decision.Redirects() {
				redirectSuccess(w, r, decision.Location)
				return
			}
			next(w, r)
		}
	}
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeySessionID).(string)
	return id
}

func sessionFrom(ctx context.Context) *session.Store {
	store, _ := ctx.Value(ContextKeySession).(*session.Store)
	return store
}

// apiContext scopes outgoing API calls to the request's browser session and
// view. Forced navigations land in the returned Navigation.
func (s *Server) apiContext(r *http.Request) (context.Context, *gateway.Navigation) {
	nav := &gateway.Navigation{}
	sessionID := sessionIDFrom(r.Context())
	ctx := gateway.WithScope(r.Context(), gateway.Scope{
		SessionID: sessionID,
		View:      r.URL.Path,
		Navigator: nav,
		Notifier:  s.notifications.For(sessionID),
	})
	return ctx, nav
}

// followNavigation honours a navigation forced during an API call
func followNavigation(w http.ResponseWriter, r *http.Request, nav *gateway.Navigation) bool {
	location, ok := nav.Target()
	if !ok {
		return false
	}
	redirectSuccess(w, r, location)
	return true
}
