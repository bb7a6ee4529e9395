package http

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/tedtop/fuelrelay/internal/config"
	"github.com/tedtop/fuelrelay/internal/handlers"
	imw "github.com/tedtop/fuelrelay/internal/http/middleware"
	"github.com/tedtop/fuelrelay/internal/portal"
	"github.com/tedtop/fuelrelay/internal/push"
	"github.com/tedtop/fuelrelay/internal/tanks"
)

// Deps carries the relay's wired components into route registration.
type Deps struct {
	Config        *config.Config
	Sessions      *portal.SessionStore
	Authenticator *portal.Authenticator
	PortalClient  *portal.Client
	Registry      *push.Registry
	Dispatcher    *push.Dispatcher
	Ledger        tanks.Ledger
	Log           zerolog.Logger
}

func Register(e *echo.Echo, otelTracer trace.Tracer, deps Deps) {
	imw.Apply(e, otelTracer)

	api := e.Group("/api")

	// Handlers
	health := handlers.NewHealthHandler(deps.Ledger, otelTracer)
	auth := handlers.NewAuthHandler(deps.Authenticator, deps.Sessions, deps.Config, otelTracer, deps.Log)
	dispatch := handlers.NewDispatchHandler(deps.PortalClient, deps.Sessions, deps.Config, otelTracer)
	pushh := handlers.NewPushHandler(deps.Registry, deps.Dispatcher, deps.Config, otelTracer, deps.Log)
	cfg := handlers.NewConfigHandler(deps.Config, otelTracer)
	tanksh := handlers.NewTanksHandler(deps.Ledger, otelTracer)

	api.GET("/health", health.Liveness)
	api.GET("/readyz", health.Readiness)

	api.POST("/login", auth.Login)
	api.GET("/auth-status", auth.Status)
	api.POST("/dispatch", dispatch.Get)
	api.GET("/config", cfg.Get)

	api.POST("/subscribe-push", pushh.Subscribe)
	api.POST("/test-push", pushh.TestPush)
	api.POST("/dispatch-push", pushh.DispatchPush)
	api.GET("/push-stats", pushh.Stats)

	api.GET("/fuel-farm/tanks", tanksh.List)
	api.POST("/fuel-farm/tanks", tanksh.Update)
	api.POST("/fuel-farm/tanks/:tankId", tanksh.Update)

	// App shell and service worker.
	if deps.Config.StaticDir != "" {
		e.Static("/", deps.Config.StaticDir)
	}
}
