package handler

import (
    "context"      // provides context with cancellation for DB calls
    "database/sql" // sql.ErrNoRows marks unknown accounts
    "errors"
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls and token lifetimes

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/khIbrahim/popcornon/internal/middleware"
    "github.com/khIbrahim/popcornon/internal/model"
    "github.com/khIbrahim/popcornon/internal/repository"
    "github.com/khIbrahim/popcornon/internal/utils"
)

// userStore is the part of repository.UserRepo the auth endpoints need.
type userStore interface {
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// tokenStore persists refresh token hashes (repository.TokenRepo).
type tokenStore interface {
    Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    Lookup(ctx context.Context, tokenHash string) (model.RefreshToken, error)
    Revoke(ctx context.Context, tokenHash string) error
}

// TokenSettings carries the signing secret and token lifetimes.
type TokenSettings struct {
    Secret     string
    AccessTTL  time.Duration
    RefreshTTL time.Duration
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Tokens   TokenSettings
    Users    userStore
    Sessions tokenStore
}

func NewAuthHandler(ts TokenSettings, u userStore, s tokenStore) *AuthHandler {
    return &AuthHandler{Tokens: ts, Users: u, Sessions: s}
}

// ----- DTOs -----

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    uint64 `json:"id"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// issue creates and stores a new access/refresh pair for u.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
    access, err := utils.NewAccessToken(h.Tokens.Secret, u.ID, u.Role, h.Tokens.AccessTTL)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Tokens.RefreshTTL)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Sessions.Store(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, err
    }
    return authResp{
        User:    userPart{ID: u.ID, Email: u.Email, Role: u.Role},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid_body", "Invalid request body")
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return fail(c, http.StatusBadRequest, "missing_credentials", "Email and password are required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return fail(c, http.StatusUnauthorized, "invalid_credentials", "Wrong email or password")
        }
        return fail(c, http.StatusInternalServerError, "internal", "Could not sign you in")
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return fail(c, http.StatusUnauthorized, "invalid_credentials", "Wrong email or password")
    }
    if !u.IsActive {
        return fail(c, http.StatusForbidden, "account_disabled", "This account is disabled")
    }

    resp, err := h.issue(ctx, u)
    if err != nil {
        return fail(c, http.StatusInternalServerError, "internal", "Could not sign you in")
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return fail(c, http.StatusBadRequest, "missing_refresh_token", "refresh_token is required")
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tok, err := h.Sessions.Lookup(ctx, hash)
    if err != nil {
        if errors.Is(err, repository.ErrTokenInvalid) {
            return fail(c, http.StatusUnauthorized, "invalid_refresh_token", "Session expired, please sign in again")
        }
        return fail(c, http.StatusInternalServerError, "internal", "Could not refresh the session")
    }
    if err := h.Sessions.Revoke(ctx, hash); err != nil {
        return fail(c, http.StatusInternalServerError, "internal", "Could not refresh the session")
    }
    u, err := h.Users.GetByID(ctx, tok.UserID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return fail(c, http.StatusUnauthorized, "invalid_refresh_token", "Session expired, please sign in again")
        }
        return fail(c, http.StatusInternalServerError, "internal", "Could not refresh the session")
    }
    if !u.IsActive {
        return fail(c, http.StatusForbidden, "account_disabled", "This account is disabled")
    }

    resp, err := h.issue(ctx, u)
    if err != nil {
        return fail(c, http.StatusInternalServerError, "internal", "Could not refresh the session")
    }
    return c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token given in the body.  Unknown or already
// revoked tokens still yield 204 so logout is idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return fail(c, http.StatusBadRequest, "missing_refresh_token", "refresh_token is required")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Sessions.Revoke(ctx, utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))); err != nil {
        return fail(c, http.StatusInternalServerError, "internal", "Could not sign you out")
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
    id, ok := middleware.UserID(c)
    if !ok {
        return fail(c, http.StatusUnauthorized, "missing_token", "Authentication required")
    }
    u, err := h.Users.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return fail(c, http.StatusNotFound, "not_found", "Account not found")
        }
        return fail(c, http.StatusInternalServerError, "internal", "Could not load your account")
    }
    return c.JSON(http.StatusOK, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
}
