package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/claims-web/auth"
	"github.com/jrsteele09/claims-web/claims"
	"github.com/jrsteele09/claims-web/guard"
	"github.com/jrsteele09/claims-web/internal/config"
	"github.com/jrsteele09/claims-web/notify"
	"github.com/jrsteele09/claims-web/session"
	"github.com/rs/zerolog/log"
)

// API is the claims API surface the web client calls. Calls must go through a
// gateway.Transport so the session token is attached and 401s are policed.
type API interface {
	auth.API
	ListClaims(ctx context.Context) ([]claims.Claim, error)
	CreateClaim(ctx context.Context, req claims.CreateRequest) (claims.Claim, error)
}

type Server struct {
	env           string // Environment (e.g., "DEV", "PROD")
	mux           *http.ServeMux
	routes        []string
	config        config.Config
	sessions      *session.Manager
	notifications *notify.Center
	api           API
	auth          *auth.Service

	requireAuth  guard.Gate
	requireGuest guard.Gate
}

func New(config config.Config, sessions *session.Manager, notifications *notify.Center, api API) (*Server, error) {
	if sessions == nil || notifications == nil || api == nil {
		return nil, errors.New("[Server New] sessions, notifications and api are required")
	}

	s := &Server{
		env:           config.GetEnv(),
		mux:           http.NewServeMux(),
		config:        config,
		sessions:      sessions,
		notifications: notifications,
		api:           api,
		auth:          auth.NewService(api),
		requireAuth:   guard.RequireAuthenticated{SignIn: RouteLogin},
		requireGuest:  guard.RequireGuest{Landing: RouteDashboard},
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// gateFor returns the gate protecting path, nil for public views
func (s *Server) gateFor(path string) guard.Gate {
	switch path {
	case RouteDashboard, RouteCreateClaim:
		return s.requireAuth
	case RouteLogin, RouteRegister:
		return s.requireGuest
	}
	return nil
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colouredMethod(method), path, Red+error+ResetColor)
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
