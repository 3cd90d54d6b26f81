package server

import (
	"html/template"
	"net/http"

	"github.com/jrsteele09/claims-web/claims"
	"github.com/jrsteele09/claims-web/notify"
	"github.com/jrsteele09/claims-web/token"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// PageData is the data every view renders with. Views fill in the fields
// they use.
type PageData struct {
	AppName       string
	Title         string
	CurrentPath   string
	Authenticated bool
	Identity      *token.Identity
	Notifications []notify.Notification
	Watch         bool // The page polls the session watch and leaves when its gate says so

	Error  string
	Fields map[string]string // Field name -> validation message
	Form   map[string]string // Submitted values echoed back

	// Sign in
	From string

	// Dashboard
	Claims     []claims.Claim
	Summary    claims.Summary
	LoadFailed bool

	// Create claim
	ClaimType claims.Type
}

func (s *Server) newPageData(r *http.Request, title string) *PageData {
	data := &PageData{
		AppName:     s.config.GetAppName(),
		Title:       title,
		CurrentPath: r.URL.Path,
		Watch:       s.gateFor(r.URL.Path) != nil,
		Fields:      map[string]string{},
		Form:        map[string]string{},
	}
	if store := sessionFrom(r.Context()); store != nil {
		state := store.State()
		data.Authenticated = state.Authenticated
		data.Identity = state.Identity
	}
	return data
}

// render shows the session's pending notifications with the page
func (s *Server) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, status int, data *PageData) {
	data.Notifications = s.notifications.Drain(sessionIDFrom(r.Context()))
	renderPage(w, tmpl, status, data)
}

// notify queues n for the request's browser session
func (s *Server) notify(r *http.Request, n notify.Notification) {
	s.notifications.Notify(sessionIDFrom(r.Context()), n)
}
