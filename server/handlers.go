package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/jrsteele09/claims-web/guard"
	"github.com/jrsteele09/claims-web/token"
)

type sessionResponse struct {
	Authenticated bool            `json:"authenticated"`
	Identity      *token.Identity `json:"identity"`
}

type watchResponse struct {
	Action   string `json:"action"`
	Location string `json:"location,omitempty"`
}

// SessionHandler reports the browser session's authentication state
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := sessionFrom(r.Context()).State()
		writeJSON(w, http.StatusOK, sessionResponse{
			Authenticated: state.Authenticated,
			Identity:      state.Identity,
		})
	}
}

// SessionWatchHandler holds the request open until the view named by the path
// query parameter has to be left, answering with the redirect. A page polls it
// so signing out in another tab, or a 401 from the API, moves it on at once.
// When nothing changes before the watch timeout the answer is render.
func (s *Server) SessionWatchHandler() http.HandlerFunc {
	timeout := s.config.GetWatchTimeout()

	return func(w http.ResponseWriter, r *http.Request) {
		requested := guard.SafeReturnPath(r.URL.Query().Get("path"), "")
		if requested == "" {
			writeJSONError(w, "invalid_request", "path must be a local absolute path", http.StatusBadRequest)
			return
		}
		u, err := url.Parse(requested)
		if err != nil {
			writeJSONError(w, "invalid_request", "path must be a local absolute path", http.StatusBadRequest)
			return
		}

		gate := s.gateFor(u.Path)
		if gate == nil {
			writeJSON(w, http.StatusOK, watchResponse{Action: guard.Render.String()})
			return
		}

		decisions := make(chan guard.Decision, 1)
		stop := guard.Watch(sessionFrom(r.Context()), gate, requested, func(d guard.Decision) {
			select {
			case decisions <- d:
			default:
			}
		})
		defer stop()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case d := <-decisions:
			writeJSON(w, http.StatusOK, watchResponse{Action: d.Action.String(), Location: d.Location})
		case <-timer.C:
			writeJSON(w, http.StatusOK, watchResponse{Action: guard.Render.String()})
		case <-r.Context().Done():
		}
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": s.sessions.Len(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes an {error, error_description} response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
