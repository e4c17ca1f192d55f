package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/khIbrahim/popcornon/internal/failure"
    "github.com/khIbrahim/popcornon/internal/utils"
)

// JWTAuth returns an Echo middleware that validates an access token and
// injects the caller's id and role into the request context (see UserID
// and Role).  The token is read from the "Authorization: Bearer" header;
// browsers cannot set headers on WebSocket upgrades, so a `token` query
// parameter is accepted as well.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := bearer(c.Request())
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, failure.Payload{
                    Message: "Authentication required",
                    Error:   "missing_token",
                })
            }
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, failure.Payload{
                    Message: "Session expired, please sign in again",
                    Error:   "invalid_token",
                })
            }
            setIdentity(c, claims.UserID, claims.Role)
            return next(c)
        }
    }
}

func bearer(r *http.Request) string {
    if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
        return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    }
    return strings.TrimSpace(r.URL.Query().Get("token"))
}
