package handler

import (
    "context"  // per-request deadlines for store calls
    "errors"   // errors.As for the booking error kind
    "net/http" // HTTP status codes
    "time"     // handler timeouts

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/ticket-booking/internal/booking" // booking service and error kinds
)

// retryAfterSeconds is advertised when a booking lost every race.
const retryAfterSeconds = "1"

// SeatHandler exposes the seat inventory over HTTP.
type SeatHandler struct {
    Svc     *booking.Service
    Timeout time.Duration // upper bound for one store round trip chain
}

// NewSeatHandler constructs a SeatHandler.  svc must be non-nil.
func NewSeatHandler(svc *booking.Service) *SeatHandler {
    if svc == nil {
        panic("nil booking service passed to NewSeatHandler")
    }
    return &SeatHandler{Svc: svc, Timeout: 10 * time.Second}
}

type bookReq struct {
    SeatCount *int `json:"seatCount"`
}

// Book handles POST /v1/seats/book.  The body is {"seatCount": n}; the
// response is the array of booked seats and the booking id is returned in
// the X-Booking-ID header.
func (h *SeatHandler) Book(c echo.Context) error {
    var req bookReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body", "code": string(booking.KindInvalidRequest)})
    }
    if req.SeatCount == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "seatCount is required", "code": string(booking.KindInvalidRequest)})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
    defer cancel()
    res, err := h.Svc.BookSeats(ctx, *req.SeatCount)
    if err != nil {
        return writeError(c, err)
    }
    c.Response().Header().Set("X-Booking-ID", res.ID)
    return c.JSON(http.StatusOK, res.Seats)
}

// List handles GET /v1/seats and returns every seat ordered by row and
// column.
func (h *SeatHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
    defer cancel()
    seats, err := h.Svc.Seats(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, seats)
}

// Rows handles GET /v1/seats/rows with the per-row vacancy summary.
func (h *SeatHandler) Rows(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
    defer cancel()
    snap, err := h.Svc.Summary(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, snap)
}

// Reset handles POST /v1/seats/reset.  It marks every seat vacant and
// returns the number of seats in the inventory.
func (h *SeatHandler) Reset(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
    defer cancel()
    n, err := h.Svc.Reset(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"count": n})
}

// writeError maps a booking error kind to its HTTP status.  Only the
// public message is written; the wrapped cause stays in the logs.
func writeError(c echo.Context, err error) error {
    var be *booking.Error
    if !errors.As(err, &be) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": string(booking.KindStorageFault)})
    }
    body := echo.Map{"error": be.Message, "code": string(be.Kind)}
    switch be.Kind {
    case booking.KindInvalidRequest:
        return c.JSON(http.StatusBadRequest, body)
    case booking.KindUnavailable:
        return c.JSON(http.StatusConflict, body)
    case booking.KindContention:
        c.Response().Header().Set("Retry-After", retryAfterSeconds)
        return c.JSON(http.StatusServiceUnavailable, body)
    }
    return c.JSON(http.StatusInternalServerError, body)
}
