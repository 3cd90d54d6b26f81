package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Public
	RouteLanding = "/"

	// Guest only
	RouteLogin    = "/login"
	RouteRegister = "/register"

	RouteLogout = "/logout"

	// Signed in only
	RouteDashboard   = "/dashboard"
	RouteCreateClaim = "/create-claim"

	// API Routes
	RouteAPISession      = "/api/session"
	RouteAPISessionWatch = "/api/session/watch"
	RouteHealth          = "/healthz"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
	RouteStaticJS  = "/js/{file}"
)
