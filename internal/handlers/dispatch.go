package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/tedtop/fuelrelay/internal/config"
	errorz "github.com/tedtop/fuelrelay/internal/errors"
	"github.com/tedtop/fuelrelay/internal/portal"
)

type DispatchHandler struct {
	client     *portal.Client
	sessions   *portal.SessionStore
	config     *config.Config
	otelTracer trace.Tracer
}

func NewDispatchHandler(client *portal.Client, sessions *portal.SessionStore, config *config.Config, otelTracer trace.Tracer) *DispatchHandler {
	return &DispatchHandler{client: client, sessions: sessions, config: config, otelTracer: otelTracer}
}

type dispatchRequest struct {
	CompanyLocationID string `json:"CompanyLocationID"`
	UserID            string `json:"UserID"`
}

// Get proxies the dispatch-detail query to the portal using the shared
// session and passes the portal's JSON back verbatim. A 401 tells the
// client to re-login; other upstream failures are surfaced as 502.
func (h *DispatchHandler) Get(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "DispatchHandler.Get")
	defer span.End()

	var req dispatchRequest
	_ = c.Bind(&req)
	if req.CompanyLocationID == "" {
		req.CompanyLocationID = h.config.CompanyLocationID
	}
	if req.UserID == "" {
		req.UserID = h.config.PortalUserID
	}
	if req.CompanyLocationID == "" || req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"Success": false, "ErrorMessage": "CompanyLocationID and UserID required",
		})
	}

	cookie, _, authenticated := h.sessions.Snapshot()
	if !authenticated {
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"Success": false, "ErrorMessage": errorz.ErrNotAuthenticated.Error(),
		})
	}

	detail, err := h.client.GetDispatchDetail(ctx, cookie, req.CompanyLocationID, req.UserID)
	if err != nil {
		var upstream *portal.UpstreamError
		switch {
		case errors.Is(err, errorz.ErrAuthExpired):
			return c.JSON(http.StatusUnauthorized, map[string]any{
				"Success": false, "ErrorMessage": errorz.ErrAuthExpired.Error(),
			})
		case errors.As(err, &upstream):
			return c.JSON(http.StatusBadGateway, map[string]any{
				"Success": false, "ErrorMessage": upstream.Error(),
			})
		default:
			return c.JSON(http.StatusBadGateway, map[string]any{
				"Success": false, "ErrorMessage": errorz.ErrPortalUnreachable.Error(),
			})
		}
	}

	return c.JSONBlob(http.StatusOK, detail)
}
