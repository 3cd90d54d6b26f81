package server

import (
	"net/http"
)

// LandingHandler renders the public landing page
func (s *Server) LandingHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("landing.html")

	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, tmpl, http.StatusOK, s.newPageData(r, "Claims Management Reimagined"))
	}
}

// NotFoundHandler renders the catch-all page for unknown paths
func (s *Server) NotFoundHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("not_found.html")

	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, tmpl, http.StatusNotFound, s.newPageData(r, "Page not found"))
	}
}
