package server

import (
	"net/http"
	"net/url"
	"time"
)

// browserSessionCookieName identifies one browser session, the unit the
// session store and notifications are kept per
const browserSessionCookieName = "ucrmp_sid"

// SetBrowserSessionCookie (re)issues the browser-session cookie. The cookie
// carries an opaque ID only; the bearer token never leaves the server.
func (s *Server) SetBrowserSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     browserSessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

// redirectSuccess sends the browser to location. HTMX requests get an
// HX-Redirect instruction instead of a 303 the XHR would follow silently.
func redirectSuccess(w http.ResponseWriter, r *http.Request, location string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// redirectWithError redirects to path with errorMsg in the error query parameter
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	q := url.Values{"error": {errorMsg}}
	redirectSuccess(w, r, path+"?"+q.Encode())
}

func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
