package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/tedtop/fuelrelay/internal/config"
	errorz "github.com/tedtop/fuelrelay/internal/errors"
)

type ConfigHandler struct {
	config     *config.Config
	otelTracer trace.Tracer
}

func NewConfigHandler(config *config.Config, otelTracer trace.Tracer) *ConfigHandler {
	return &ConfigHandler{config: config, otelTracer: otelTracer}
}

// Get hands the browser client the settings it polls with. The private
// VAPID key never leaves the server.
func (h *ConfigHandler) Get(c echo.Context) error {
	_, span := h.otelTracer.Start(c.Request().Context(), "ConfigHandler.Get")
	defer span.End()

	if !h.config.HasPortalCredentials() {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": errorz.ErrConfigIncomplete.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"username":          h.config.PortalUsername,
		"password":          h.config.PortalPassword,
		"companyLocationId": h.config.CompanyLocationID,
		"userId":            h.config.PortalUserID,
		"vapidPublicKey":    h.config.VAPIDPublicKey,
		"pollInterval":      h.config.PollIntervalMs,
	})
}
