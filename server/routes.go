package server

import (
	"net/http"
	"strings"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.LandingHandler(), s.PageMiddleware()...))

	// Guest only
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.PageMiddleware(s.Guard(s.requireGuest))...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.PageMiddleware(s.Guard(s.requireGuest))...))
	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.RegisterPageHandler(), s.PageMiddleware(s.Guard(s.requireGuest))...))
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterSubmissionHandler(), s.PageMiddleware(s.Guard(s.requireGuest))...))

	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.PageMiddleware()...))

	// Signed in only
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.PageMiddleware(s.Guard(s.requireAuth))...))
	s.RegisterRouteHandler("GET "+RouteCreateClaim, ChainMiddleware(s.CreateClaimPageHandler(), s.PageMiddleware(s.Guard(s.requireAuth))...))
	s.RegisterRouteHandler("POST "+RouteCreateClaim, ChainMiddleware(s.CreateClaimSubmissionHandler(), s.PageMiddleware(s.Guard(s.requireAuth))...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware(s.BrowserSessionMiddleware, s.RestoreSessionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteAPISessionWatch, ChainMiddleware(s.SessionWatchHandler(), s.APIMiddleware(s.BrowserSessionMiddleware, s.RestoreSessionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware)...))

	// Everything else
	s.RegisterRouteHandler("/", ChainMiddleware(s.NotFoundHandler(), s.PageMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError(r.Method, filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
