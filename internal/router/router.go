// Package router wires the HTTP routes to their handlers.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/adrienvx/travel-agency-api/internal/config"
	"github.com/adrienvx/travel-agency-api/internal/handler"
	mw "github.com/adrienvx/travel-agency-api/internal/middleware"
)

// Register mounts every route of the API on e.  Read endpoints on the
// destination catalogue sit behind the Redis response cache; rdb may be
// nil, in which case caching is disabled and requests hit the database
// directly.
func Register(e *echo.Echo, dh *handler.DestinationHandler, rh *handler.ReservationHandler, rdb *redis.Client) {
	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	cache := mw.NewRedisCache(config.LoadCacheConfig(), rdb)

	d := e.Group("/api/destinations")
	d.GET("", dh.List, cache)
	d.GET("/search", dh.Search, cache)
	d.GET("/:id", dh.Get, cache)
	d.POST("", dh.Create)
	d.PUT("/:id", dh.Update)
	d.DELETE("/:id", dh.Delete)

	r := e.Group("/api/reservations")
	r.GET("", rh.List)
	r.GET("/stats/dashboard", rh.Stats)
	r.GET("/numero/:numero", rh.GetByNumero)
	r.GET("/:id", rh.Get)
	r.POST("", rh.Create)
	r.PATCH("/:id/statut", rh.UpdateStatus)
	r.DELETE("/:id", rh.Delete)
}
