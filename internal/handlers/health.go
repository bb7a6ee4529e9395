package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/tedtop/fuelrelay/internal/tanks"
)

type HealthHandler struct {
	ledger     tanks.Ledger
	otelTracer trace.Tracer
}

func NewHealthHandler(ledger tanks.Ledger, otelTracer trace.Tracer) *HealthHandler {
	return &HealthHandler{ledger: ledger, otelTracer: otelTracer}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness reports degraded when the tank store is unreachable; the
// relay's portal and push paths do not depend on it.
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "HealthHandler.Readiness")
	defer span.End()

	if !h.ledger.Available(ctx) {
		return c.JSON(http.StatusOK, map[string]string{"status": "degraded", "db": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
