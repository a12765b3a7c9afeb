// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/placenote/internal/handler"
)

// Middlewares groups the per-route middleware built in main.  Any nil entry
// is skipped.
type Middlewares struct {
	Gate        echo.MiddlewareFunc // access-token authentication
	RateLimit   echo.MiddlewareFunc // general token bucket
	AuthLimit   echo.MiddlewareFunc // tighter bucket for register/login/refresh
	NearbyCache echo.MiddlewareFunc // Redis response cache for nearby queries
}

// RegisterRoutes registers the operational endpoints.  metrics may be nil.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc, metrics http.Handler) {
	e.GET("/healthz", health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers /v1/auth and the public profile endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, mw Middlewares) {
	g := e.Group("/v1/auth", chain(mw.AuthLimit)...)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.GET("/me", a.Me, chain(mw.Gate)...)

	e.GET("/v1/users/:id", a.Profile, chain(mw.RateLimit)...)
}

// chain drops nil middleware so callers can leave optional layers unset.
func chain(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
