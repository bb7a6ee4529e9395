package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/tedtop/fuelrelay/internal/config"
	"github.com/tedtop/fuelrelay/internal/db"
	errorz "github.com/tedtop/fuelrelay/internal/errors"
	httpserver "github.com/tedtop/fuelrelay/internal/http"
	"github.com/tedtop/fuelrelay/internal/portal"
	"github.com/tedtop/fuelrelay/internal/push"
	"github.com/tedtop/fuelrelay/internal/tanks"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(errors.Join(errorz.ErrConfigNotFound, err)).Msg("config load failed")
	}

	log.Info().Msg("config loaded")

	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(otelconfig.WithServiceName(cfg.ServiceName))
	if err != nil {
		exp, expErr := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if expErr != nil {
			log.Fatal().Err(errors.Join(errorz.ErrErrorWileStartingOTel, err)).Msg("otel setup failed")
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(sdkresource.NewSchemaless(
				semconv.ServiceName(cfg.ServiceName),
			)),
		)
		shutdownFn := func() { _ = tp.Shutdown(context.Background()) }
		otelShutdown = shutdownFn
	}
	defer otelShutdown()

	// Tank ledger: gorm-backed when a DSN is configured, otherwise the
	// endpoints degrade to zero levels with writes rejected.
	var ledger tanks.Ledger = tanks.UnavailableLedger{}
	if cfg.PostgresDSN != "" {
		database, err := db.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(errors.Join(errorz.ErrDatabaseError, err)).Msg("database open failed")
		}
		ledger = tanks.NewGormLedger(database)
		log.Info().Msg("database initialized")
	} else {
		log.Warn().Msg("no POSTGRES_DSN configured; tank readings will not persist")
	}

	portalHTTP := &http.Client{Timeout: cfg.PortalTimeout}
	sessions := portal.NewSessionStore()
	authenticator := portal.NewAuthenticator(cfg.PortalBaseURL, portalHTTP, log)
	portalClient := portal.NewClient(cfg.PortalBaseURL, &http.Client{Timeout: cfg.PortalTimeout}, log)

	registry := push.NewRegistry()
	sender := push.NewWebPushSender(push.VAPIDConfig{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Email:      cfg.VAPIDEmail,
	})
	dispatcher := push.NewDispatcher(sender, registry, log)

	// Warm the shared portal session once at startup so every client of
	// the relay shares it. Failure is non-fatal; clients can POST
	// /api/login later.
	if cfg.HasPortalCredentials() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.PortalTimeout)
		sess, err := authenticator.Login(ctx, cfg.PortalUsername, cfg.PortalPassword)
		cancel()
		if err != nil {
			log.Warn().Err(err).Msg("startup portal authentication failed")
		} else {
			sessions.Set(sess)
			log.Info().Msg("startup portal authentication successful")
		}
	}

	e := echo.New()
	otelTracer := otel.Tracer(cfg.ServiceName)
	httpserver.Register(e, otelTracer, httpserver.Deps{
		Config:        &cfg,
		Sessions:      sessions,
		Authenticator: authenticator,
		PortalClient:  portalClient,
		Registry:      registry,
		Dispatcher:    dispatcher,
		Ledger:        ledger,
		Log:           log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	srvErrCh := make(chan error, 1)
	go func() { srvErrCh <- e.StartServer(srv) }()

	log.Info().Str("port", cfg.Port).Msg("server initialized")

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-shutdownCtx.Done():
		// graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			_ = e.Close()
		}
	case err := <-srvErrCh:
		if err != nil && err != http.ErrServerClosed {
			// server failed to start or crashed
			log.Error().Err(errors.Join(errorz.ErrServerError, err)).Msg("server exited")
			os.Exit(1)
		}
	}
}
