package handler // declare the package name; contains HTTP handlers

import (
    "context"  // bounded readiness probe
    "net/http" // net/http provides status codes and response helpers
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project

    "github.com/iliyamo/ticket-booking/internal/booking"
)

// Health returns a handler for load balancers and monitoring systems.  It
// answers "ok" when the seat store can produce a snapshot and 503
// otherwise.
func Health(svc *booking.Service) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if _, err := svc.Summary(ctx); err != nil {
            return c.String(http.StatusServiceUnavailable, "store unavailable")
        }
        return c.String(http.StatusOK, "ok")
    }
}
