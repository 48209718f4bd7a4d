package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// RequestLogger writes one structured line per request.  Server errors log
// at error level, client errors at warn.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err) // let echo write the response so the status is final
            }
            status := c.Response().Status

            ev := log.Info()
            switch {
            case status >= 500:
                ev = log.Error()
            case status >= 400:
                ev = log.Warn()
            }
            ev.Str("method", c.Request().Method).
                Str("path", c.Path()).
                Int("status", status).
                Dur("latency", time.Since(start)).
                Str("ip", c.RealIP()).
                Err(err).
                Msg("request")
            return nil
        }
    }
}
