package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/tedtop/fuelrelay/internal/config"
	errorz "github.com/tedtop/fuelrelay/internal/errors"
	"github.com/tedtop/fuelrelay/internal/portal"
)

type AuthHandler struct {
	authenticator *portal.Authenticator
	sessions      *portal.SessionStore
	config        *config.Config
	otelTracer    trace.Tracer
	log           zerolog.Logger
}

func NewAuthHandler(authenticator *portal.Authenticator, sessions *portal.SessionStore, config *config.Config, otelTracer trace.Tracer, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authenticator: authenticator, sessions: sessions, config: config, otelTracer: otelTracer, log: log}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login runs the portal handshake and installs the resulting session as
// the process-wide one shared by every client of the relay.
func (h *AuthHandler) Login(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "AuthHandler.Login")
	defer span.End()

	var req loginRequest
	_ = c.Bind(&req)
	if req.Username == "" {
		req.Username = h.config.PortalUsername
		req.Password = h.config.PortalPassword
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false, "error": errorz.ErrCredentialsRequired.Error(),
		})
	}

	sess, err := h.authenticator.Login(ctx, req.Username, req.Password)
	if err != nil {
		var upstream *portal.UpstreamError
		switch {
		case errors.Is(err, errorz.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, map[string]any{
				"success": false, "error": errorz.ErrInvalidCredentials.Error(),
			})
		case errors.As(err, &upstream):
			return c.JSON(http.StatusBadGateway, map[string]any{
				"success": false, "error": upstream.Error(),
			})
		default:
			h.log.Error().Err(err).Msg("portal login failed")
			return c.JSON(http.StatusBadGateway, map[string]any{
				"success": false, "error": errorz.ErrPortalUnreachable.Error(),
			})
		}
	}

	h.sessions.Set(sess)
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Login successful"})
}

// Status reports whether a portal session is currently held.
func (h *AuthHandler) Status(c echo.Context) error {
	_, span := h.otelTracer.Start(c.Request().Context(), "AuthHandler.Status")
	defer span.End()

	cookie, count, authenticated := h.sessions.Snapshot()
	return c.JSON(http.StatusOK, map[string]any{
		"isAuthenticated": authenticated,
		"hasCookies":      cookie != "",
		"cookieCount":     count,
	})
}
