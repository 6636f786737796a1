package main

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/clinic/scheduler/internal/config"
	"github.com/clinic/scheduler/internal/domain/clinic"
	"github.com/clinic/scheduler/internal/platform/auth"
	"github.com/clinic/scheduler/internal/platform/db"
	"github.com/clinic/scheduler/internal/platform/metrics"
	"github.com/clinic/scheduler/internal/platform/middleware"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

// serverDeps carries everything newServer wires into routes. pool and
// redis are nil when not configured.
type serverDeps struct {
	svc     *clinic.Service
	logger  zerolog.Logger
	metrics *metrics.Metrics
	loc     *time.Location
	pool    *pgxpool.Pool
	redis   healthChecker
}

func newServer(cfg *config.Config, deps serverDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(deps.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(deps.logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	e.GET("/health", healthHandler(deps))
	if deps.metrics != nil {
		e.GET("/metrics", deps.metrics.Handler())
	}

	var authMW echo.MiddlewareFunc
	if cfg.IsDev() {
		authMW = auth.DevAuthMiddleware()
	} else {
		authMW = auth.JWTMiddleware(jwtConfig(cfg))
	}
	apiV1 := e.Group("/api/v1", middleware.RequestTimeout(cfg.RequestTimeout), authMW)
	clinic.NewHandler(deps.svc, deps.loc).RegisterRoutes(apiV1)

	return e
}

type redisHealth struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type healthResponse struct {
	Status   string        `json:"status"`
	Clinic   string        `json:"clinic"`
	Stats    clinic.Stats  `json:"stats"`
	Database *db.PoolStats `json:"database,omitempty"`
	Redis    *redisHealth  `json:"redis,omitempty"`
}

func healthHandler(deps serverDeps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		resp := healthResponse{
			Status: "ok",
			Clinic: deps.svc.Registry().Name(),
			Stats:  deps.svc.Stats(ctx),
		}

		if deps.pool != nil {
			resp.Database = db.Check(ctx, deps.pool)
			if !resp.Database.Healthy {
				resp.Status = "degraded"
			}
		}
		if deps.redis != nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := deps.redis.Health(pingCtx)
			cancel()
			resp.Redis = &redisHealth{Healthy: err == nil}
			if err != nil {
				resp.Redis.Error = err.Error()
				resp.Status = "degraded"
			}
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, resp)
	}
}
