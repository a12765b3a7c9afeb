package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/placenote/internal/handler"
)

// RegisterMemos registers /v1/memos.  Reads are public; writes go through
// the gate before the rate limiter so buckets are keyed per user.
func RegisterMemos(e *echo.Echo, m *handler.MemoHandler, mw Middlewares) {
	g := e.Group("/v1/memos")

	// Static segment; echo matches it ahead of /:id.
	g.GET("/nearby", m.Nearby, chain(mw.RateLimit, mw.NearbyCache)...)
	g.GET("/:id", m.Get, chain(mw.RateLimit)...)

	protected := chain(mw.Gate, mw.RateLimit)
	g.POST("", m.Create, protected...)
	g.PUT("/:id", m.Update, protected...)
	g.DELETE("/:id", m.Delete, protected...)

	e.GET("/v1/users/:id/memos", m.ListByOwner, chain(mw.RateLimit)...)
}
