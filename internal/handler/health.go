package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http" // net/http provides status codes and response helpers
    "sort"
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Check probes one dependency of the server.
type Check func(ctx context.Context) error

type healthResp struct {
    Status string            `json:"status"`
    Checks map[string]string `json:"checks"`
}

// Health returns the health-check endpoint used by load balancers and
// monitoring.  Without checks it answers a plain "ok".  Otherwise every
// check runs with a two second budget and any failure turns the answer
// into 503 with status "degraded".
func Health(checks map[string]Check) echo.HandlerFunc {
    names := make([]string, 0, len(checks))
    for name := range checks {
        names = append(names, name)
    }
    sort.Strings(names)

    return func(c echo.Context) error {
        if len(names) == 0 {
            return c.String(http.StatusOK, "ok")
        }
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()

        resp := healthResp{Status: "ok", Checks: make(map[string]string, len(names))}
        for _, name := range names {
            if err := checks[name](ctx); err != nil {
                resp.Status = "degraded"
                resp.Checks[name] = err.Error()
                continue
            }
            resp.Checks[name] = "ok"
        }
        if resp.Status != "ok" {
            return c.JSON(http.StatusServiceUnavailable, resp)
        }
        return c.JSON(http.StatusOK, resp)
    }
}
