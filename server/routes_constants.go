package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Pages
	RouteHome      = "/"
	RouteAccounts  = "/accounts"
	RouteLoggedOut = "/logged-out"

	// Auth Routes
	RouteSigninCallback = "/signin-callback"
	RouteAuthLogout     = "/auth/logout"

	// Clears browser state for this origin
	RouteLogout = "/logout"

	RouteHealthz = "/healthz"

	// Static Asset Routes (patterns)
	RouteStatic = "/static/{file}"
)
