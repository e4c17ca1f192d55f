package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/khIbrahim/popcornon/internal/dashboard"
    "github.com/khIbrahim/popcornon/internal/middleware"
    "github.com/khIbrahim/popcornon/internal/model"
    "github.com/khIbrahim/popcornon/internal/notify"
    "github.com/khIbrahim/popcornon/internal/repository"
)

type requestDecider interface {
    Decide(ctx context.Context, id uint64, status model.RequestStatus, adminID uint64) (*model.Activity, error)
}

type cinemaArchiver interface {
    Archive(ctx context.Context, id uint64) error
}

type cachePurger interface {
    Purge(ctx context.Context) (int, error)
}

// AdminHandler serves the back-office overview and review actions.
// Requests, Cinemas and Purger may be nil when the server runs without a
// database; the router then leaves the write routes unmounted.
type AdminHandler struct {
    Dashboard *dashboard.Service
    Requests  requestDecider
    Cinemas   cinemaArchiver
    Purger    cachePurger
    Notifier  notify.Notifier
    Live      http.Handler // websocket toast feed
    Logger    zerolog.Logger
}

// Overview returns the statistics snapshot; ?weekly=true adds the chart.
func (h *AdminHandler) Overview(c echo.Context) error {
    weekly := false
    if raw := c.QueryParam("weekly"); raw != "" {
        v, err := strconv.ParseBool(raw)
        if err != nil {
            return fail(c, http.StatusBadRequest, "invalid_weekly", "weekly must be true or false")
        }
        weekly = v
    }
    stats, err := h.Dashboard.Overview(c.Request().Context(), weekly)
    if err != nil {
        h.Logger.Error().Err(err).Msg("overview")
        return fail(c, http.StatusInternalServerError, "internal", "Could not load the overview")
    }
    return c.JSON(http.StatusOK, stats)
}

// Activity lists recent partner requests (?status=&limit=).
func (h *AdminHandler) Activity(c echo.Context) error {
    var status model.RequestStatus
    if raw := c.QueryParam("status"); raw != "" {
        s, err := model.ParseRequestStatus(raw)
        if err != nil {
            return fail(c, http.StatusBadRequest, "invalid_status", "status must be pending, approved or rejected")
        }
        status = s
    }
    limit := 0
    if raw := c.QueryParam("limit"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n < 1 {
            return fail(c, http.StatusBadRequest, "invalid_limit", "limit must be a positive number")
        }
        limit = n
    }
    items, err := h.Dashboard.Recent(c.Request().Context(), limit, status)
    if err != nil {
        h.Logger.Error().Err(err).Msg("recent activity")
        return fail(c, http.StatusInternalServerError, "internal", "Could not load recent activity")
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Approve accepts a pending partner request and creates its cinema.
func (h *AdminHandler) Approve(c echo.Context) error {
    return h.decide(c, model.StatusApproved)
}

// Reject declines a pending partner request.
func (h *AdminHandler) Reject(c echo.Context) error {
    return h.decide(c, model.StatusRejected)
}

func (h *AdminHandler) decide(c echo.Context, status model.RequestStatus) error {
    id, err := parseID(c)
    if err != nil {
        return fail(c, http.StatusBadRequest, "bad_id", "Invalid request")
    }
    adminID, _ := middleware.UserID(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    a, err := h.Requests.Decide(ctx, id, status, adminID)
    switch {
    case errors.Is(err, repository.ErrRequestNotFound):
        return fail(c, http.StatusNotFound, "not_found", "Partner request not found")
    case errors.Is(err, repository.ErrConflict):
        return fail(c, http.StatusConflict, "already_decided", "This request was already reviewed")
    case errors.Is(err, repository.ErrDuplicate):
        return fail(c, http.StatusConflict, "duplicate_cinema", "A cinema with this name already exists in that city")
    case err != nil:
        h.Logger.Error().Err(err).Uint64("request_id", id).Msg("decide partner request")
        return fail(c, http.StatusInternalServerError, "internal", "Could not save the decision")
    }

    if status == model.StatusApproved {
        h.purge(ctx)
        h.Notifier.Notify(notify.New(notify.LevelSuccess, fmt.Sprintf("%s (%s) joined PopcornON", a.CinemaName, a.City)))
    } else {
        h.Notifier.Notify(notify.New(notify.LevelWarning, fmt.Sprintf("Partner request from %s was rejected", a.CinemaName)))
    }
    return c.JSON(http.StatusOK, a)
}

// ArchiveCinema hides a cinema from the public listing.
func (h *AdminHandler) ArchiveCinema(c echo.Context) error {
    id, err := parseID(c)
    if err != nil {
        return fail(c, http.StatusBadRequest, "bad_id", "Invalid request")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    switch err := h.Cinemas.Archive(ctx, id); {
    case errors.Is(err, repository.ErrCinemaNotFound):
        return fail(c, http.StatusNotFound, "not_found", "Cinema not found")
    case errors.Is(err, repository.ErrConflict):
        return fail(c, http.StatusConflict, "already_archived", "This cinema is already archived")
    case err != nil:
        h.Logger.Error().Err(err).Uint64("cinema_id", id).Msg("archive cinema")
        return fail(c, http.StatusInternalServerError, "internal", "Could not archive the cinema")
    }
    h.purge(ctx)
    h.Notifier.Notify(notify.New(notify.LevelInfo, fmt.Sprintf("Cinema #%d archived", id)))
    return c.NoContent(http.StatusNoContent)
}

// Notifications upgrades to a websocket streaming live toasts.
func (h *AdminHandler) Notifications(c echo.Context) error {
    if h.Live == nil {
        return fail(c, http.StatusServiceUnavailable, "unavailable", "Live notifications are disabled")
    }
    h.Live.ServeHTTP(c.Response(), c.Request())
    return nil
}

func (h *AdminHandler) purge(ctx context.Context) {
    if h.Purger == nil {
        return
    }
    if _, err := h.Purger.Purge(ctx); err != nil {
        h.Logger.Warn().Err(err).Msg("purge response cache")
    }
}

func parseID(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err == nil && id == 0 {
        err = errors.New("id must be positive")
    }
    return id, err
}
