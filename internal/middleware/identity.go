package middleware

// identity.go holds the accessors for the caller identity that JWTAuth
// stores in the Echo context.  Handlers and the rate limiter read it
// through these helpers instead of touching context keys directly.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// UserID returns the authenticated user's id.  ok is false for guests.
func UserID(c echo.Context) (id uint64, ok bool) {
    id, ok = c.Get(ctxUserID).(uint64)
    return id, ok && id != 0
}

// Role returns the authenticated user's role, or "" for guests.
func Role(c echo.Context) string {
    r, _ := c.Get(ctxRole).(string)
    return r
}

// setIdentity stores the caller identity for downstream handlers.
func setIdentity(c echo.Context, id uint64, role string) {
    c.Set(ctxUserID, id)
    c.Set(ctxRole, role)
}

// subject is the identity segment used in rate limit keys.
func subject(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "guest"
}
