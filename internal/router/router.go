package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/ticket-booking/internal/booking"    // booking service behind the seat routes
	"github.com/iliyamo/ticket-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/ticket-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication: the
// health check and the Prometheus scrape endpoint for gatherer g.
func RegisterRoutes(e *echo.Echo, svc *booking.Service, g prometheus.Gatherer) {
	e.GET("/healthz", handler.Health(svc))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}

// RegisterAuth exposes operator login under /v1/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
}

// RegisterSeats registers the seat inventory routes.  Reading and booking
// are public; booking passes through limiter.  Reset requires an ADMIN
// access token signed with jwtSecret.
func RegisterSeats(e *echo.Echo, s *handler.SeatHandler, limiter echo.MiddlewareFunc, jwtSecret string) {
	g := e.Group("/v1/seats")
	g.GET("", s.List)
	g.GET("/rows", s.Rows)
	g.POST("/book", s.Book, limiter)
	g.POST("/reset", s.Reset, middleware.JWTAuth(jwtSecret), middleware.RequireRole(handler.RoleAdmin))
}
