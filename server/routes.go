package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHome+"{$}", ChainMiddleware(s.HomeHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAccounts, ChainMiddleware(s.AccountsHandler(), s.PageMiddleware(s.GuardMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteLoggedOut, ChainMiddleware(s.LoggedOutHandler(), s.PageMiddleware()...))

	// AUTH
	s.RegisterRouteHandler("GET "+RouteSigninCallback, ChainMiddleware(s.SigninCallbackHandler(), s.PageMiddleware(s.NoStoreMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.HardLogoutHandler(), s.PageMiddleware(s.NoStoreMiddleware)...))

	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.ClearSiteDataHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteLogout, ChainMiddleware(s.ClearSiteDataHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteHealthz, ChainMiddleware(s.HealthzHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStatic, ChainMiddleware(s.assets.ServeHTTP, s.HTMLMiddleWare(s.CacheMiddleware)...))
}
