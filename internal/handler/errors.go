package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/khIbrahim/popcornon/internal/failure"
)

// fail writes the error body every PopcornON endpoint uses:
// {"message": "<human text>", "error": "<code>"}.
func fail(c echo.Context, status int, code, message string) error {
    return c.JSON(status, failure.Payload{Message: message, Error: code})
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes,
// bind failures, method mismatches) with the same body as fail.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        status := http.StatusInternalServerError
        message := "Something went wrong on our side"
        var he *echo.HTTPError
        if errors.As(err, &he) {
            status = he.Code
            if m, ok := he.Message.(string); ok && m != "" {
                message = m
            } else {
                message = http.StatusText(status)
            }
        } else {
            logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("unhandled error")
        }
        code := strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
        if code == "" {
            code = "error"
        }
        if c.Request().Method == http.MethodHead {
            _ = c.NoContent(status)
            return
        }
        _ = fail(c, status, code, message)
    }
}
