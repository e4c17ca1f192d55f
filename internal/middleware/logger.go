package middleware

import (
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/rs/zerolog"

    "github.com/khIbrahim/popcornon/internal/failure"
)

// RequestLogger writes one zerolog line per request.  5xx responses log at
// error level, 4xx at warn.
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            ev := logger.Info()
            switch {
            case v.Status >= http.StatusInternalServerError:
                ev = logger.Error()
            case v.Status >= http.StatusBadRequest:
                ev = logger.Warn()
            }
            if v.Error != nil {
                ev = ev.Err(v.Error)
            }
            if id, ok := UserID(c); ok {
                ev = ev.Uint64("user_id", id)
            }
            ev.Str("method", v.Method).
                Str("uri", v.URI).
                Int("status", v.Status).
                Dur("latency", v.Latency).
                Str("ip", v.RemoteIP).
                Str("request_id", v.RequestID).
                Msg("request")
            return nil
        },
    })
}

// Recover turns a handler panic into a 500 with the standard error body.
func Recover(logger zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) (err error) {
            defer func() {
                r := recover()
                if r == nil {
                    return
                }
                if r == http.ErrAbortHandler {
                    panic(r)
                }
                logger.Error().
                    Str("panic", fmt.Sprint(r)).
                    Str("uri", c.Request().RequestURI).
                    Msg("handler panicked")
                err = c.JSON(http.StatusInternalServerError, failure.Payload{
                    Message: "Something went wrong on our side",
                    Error:   "internal",
                })
            }()
            return next(c)
        }
    }
}
