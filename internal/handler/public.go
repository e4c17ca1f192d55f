// This file defines the unauthenticated endpoints: the customer cinema
// listing and the partner request form.
package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/mail"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/khIbrahim/popcornon/internal/model"
    "github.com/khIbrahim/popcornon/internal/notify"
    "github.com/khIbrahim/popcornon/internal/repository"
)

type cinemaLister interface {
    ListActive(ctx context.Context, city string) ([]*model.Cinema, error)
}

type requestCreator interface {
    Create(ctx context.Context, a *model.Activity) error
}

// PublicHandler serves guest endpoints.  New partner requests are
// announced to admins through Notifier.
type PublicHandler struct {
    Cinemas  cinemaLister
    Requests requestCreator
    Notifier notify.Notifier
    Logger   zerolog.Logger
}

// ListCinemas returns active cinemas, optionally filtered by ?city=.
func (h *PublicHandler) ListCinemas(c echo.Context) error {
    city := strings.TrimSpace(c.QueryParam("city"))
    items, err := h.Cinemas.ListActive(c.Request().Context(), city)
    if err != nil {
        h.Logger.Error().Err(err).Str("city", city).Msg("list cinemas")
        return fail(c, http.StatusInternalServerError, "internal", "Could not load cinemas")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type partnerRequestReq struct {
    CinemaName   string `json:"cinema_name"`
    City         string `json:"city"`
    ContactEmail string `json:"contact_email"`
}

const maxNameLen = 120

func (r *partnerRequestReq) normalize() (code, message string) {
    r.CinemaName = strings.TrimSpace(r.CinemaName)
    r.City = strings.TrimSpace(r.City)
    r.ContactEmail = strings.ToLower(strings.TrimSpace(r.ContactEmail))
    switch {
    case r.CinemaName == "" || r.City == "":
        return "missing_fields", "Cinema name and city are required"
    case len(r.CinemaName) > maxNameLen || len(r.City) > maxNameLen:
        return "too_long", fmt.Sprintf("Names are limited to %d characters", maxNameLen)
    }
    if addr, err := mail.ParseAddress(r.ContactEmail); err != nil || addr.Address != r.ContactEmail {
        return "invalid_email", "A valid contact email is required"
    }
    return "", ""
}

// SubmitPartnerRequest stores a pending request and notifies admins.
func (h *PublicHandler) SubmitPartnerRequest(c echo.Context) error {
    var req partnerRequestReq
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid_body", "Invalid request body")
    }
    if code, msg := req.normalize(); code != "" {
        return fail(c, http.StatusBadRequest, code, msg)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    a := &model.Activity{CinemaName: req.CinemaName, City: req.City, ContactEmail: req.ContactEmail}
    if err := h.Requests.Create(ctx, a); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return fail(c, http.StatusConflict, "duplicate_request", "A request for this cinema is already on file")
        }
        h.Logger.Error().Err(err).Msg("create partner request")
        return fail(c, http.StatusInternalServerError, "internal", "Could not submit the request")
    }
    h.Notifier.Notify(notify.New(notify.LevelInfo,
        fmt.Sprintf("New partner request from %s (%s)", a.CinemaName, a.City)))
    return c.JSON(http.StatusCreated, a)
}
