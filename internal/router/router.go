package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/khIbrahim/popcornon/internal/handler"    // handlers implementing each endpoint
	"github.com/khIbrahim/popcornon/internal/middleware" // JWT, role guard, rate limit and cache
	"github.com/khIbrahim/popcornon/internal/model"
)

// Deps collects what RegisterRoutes mounts.  Auth and Public are nil when
// the server runs without a database; only the read-only admin routes are
// mounted then.
type Deps struct {
	JWTSecret string
	Health    map[string]handler.Check // dependency probes for /healthz
	Auth      *handler.AuthHandler
	Public    *handler.PublicHandler
	Admin     *handler.AdminHandler
	RateLimit echo.MiddlewareFunc // applied to login, refresh and partner requests
	Cache     echo.MiddlewareFunc // applied to the public cinema listing
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// RegisterRoutes registers every endpoint of the back-office API.
func RegisterRoutes(e *echo.Echo, d Deps) {
	if d.RateLimit == nil {
		d.RateLimit = passThrough
	}
	if d.Cache == nil {
		d.Cache = passThrough
	}

	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health(d.Health))

	v1 := e.Group("/v1")
	admin := v1.Group("/admin")

	if d.Auth == nil {
		// Demo mode: no accounts exist, so the mock overview is served
		// without authentication.
		admin.GET("/overview", d.Admin.Overview)
		admin.GET("/activity", d.Admin.Activity)
		admin.GET("/notifications/ws", d.Admin.Notifications)
		return
	}

	// Session endpoints do not require an existing access token.
	auth := v1.Group("/auth")
	auth.POST("/login", d.Auth.Login, d.RateLimit)
	auth.POST("/refresh", d.Auth.Refresh, d.RateLimit)
	auth.POST("/logout", d.Auth.Logout)

	jwt := middleware.JWTAuth(d.JWTSecret)
	v1.GET("/me", d.Auth.Me, jwt)

	// Public browse and partner onboarding.
	v1.GET("/cinemas", d.Public.ListCinemas, d.Cache)
	v1.POST("/partner-requests", d.Public.SubmitPartnerRequest, d.RateLimit)

	// Back-office, ADMIN only.
	admin.Use(jwt, middleware.RequireRole(model.RoleAdmin))
	admin.GET("/overview", d.Admin.Overview)
	admin.GET("/activity", d.Admin.Activity)
	admin.POST("/partner-requests/:id/approve", d.Admin.Approve)
	admin.POST("/partner-requests/:id/reject", d.Admin.Reject)
	admin.POST("/cinemas/:id/archive", d.Admin.ArchiveCinema)
	admin.GET("/notifications/ws", d.Admin.Notifications)
}
