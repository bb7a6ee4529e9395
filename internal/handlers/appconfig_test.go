package handlers

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/tedtop/fuelrelay/internal/config"
)

func TestConfigGet(t *testing.T) {
	e := echo.New()
	cfg := &config.Config{
		PortalUsername:    "ops@example.com",
		PortalPassword:    "hunter2",
		CompanyLocationID: "loc-1",
		PortalUserID:      "user-1",
		VAPIDPublicKey:    "pub",
		VAPIDPrivateKey:   "priv",
		PollIntervalMs:    30000,
	}
	h := NewConfigHandler(cfg, noop.NewTracerProvider().Tracer("test"))

	c, rec := jsonContext(e, http.MethodGet, "/api/config", "")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"pollInterval":30000`)
	require.Contains(t, rec.Body.String(), `"vapidPublicKey":"pub"`)
	// The signing key stays on the server.
	require.NotContains(t, rec.Body.String(), "priv")
}

func TestConfigGetIncomplete(t *testing.T) {
	e := echo.New()
	h := NewConfigHandler(&config.Config{PortalUsername: "ops@example.com"}, noop.NewTracerProvider().Tracer("test"))

	c, rec := jsonContext(e, http.MethodGet, "/api/config", "")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "configuration incomplete")
}
