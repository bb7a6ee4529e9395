package handlers

import (
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/tedtop/fuelrelay/internal/config"
	errorz "github.com/tedtop/fuelrelay/internal/errors"
	"github.com/tedtop/fuelrelay/internal/models"
	"github.com/tedtop/fuelrelay/internal/push"
)

type PushHandler struct {
	registry   *push.Registry
	dispatcher *push.Dispatcher
	config     *config.Config
	otelTracer trace.Tracer
	log        zerolog.Logger
}

func NewPushHandler(registry *push.Registry, dispatcher *push.Dispatcher, config *config.Config, otelTracer trace.Tracer, log zerolog.Logger) *PushHandler {
	return &PushHandler{registry: registry, dispatcher: dispatcher, config: config, otelTracer: otelTracer, log: log}
}

type subscribeRequest struct {
	Subscription *webpush.Subscription `json:"subscription"`
	UserID       string                `json:"userId"`
	CompanyID    string                `json:"companyId"`
}

// Subscribe registers a device's push subscription, replacing any earlier
// one for the same (user, company) pair.
func (h *PushHandler) Subscribe(c echo.Context) error {
	_, span := h.otelTracer.Start(c.Request().Context(), "PushHandler.Subscribe")
	defer span.End()

	var req subscribeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if req.Subscription == nil || req.Subscription.Endpoint == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": errorz.ErrSubscriptionRequired.Error()})
	}
	if req.UserID == "" || req.CompanyID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": errorz.ErrIdentityRequired.Error()})
	}

	key := h.registry.Add(req.UserID, req.CompanyID, *req.Subscription)
	h.log.Info().Str("user", req.UserID).Str("company", req.CompanyID).Msg("push subscription stored")

	return c.JSON(http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Subscription stored successfully",
		"subscriptionId": key.String(),
		"stats":          h.registry.Stats(),
	})
}

type testPushRequest struct {
	UserID         string                `json:"userId"`
	CompanyID      string                `json:"companyId"`
	Subscription   *webpush.Subscription `json:"subscription"`
	LatestDispatch *models.Dispatch      `json:"latestDispatch"`
}

// TestPush sends one notification to a single device, templated from the
// latest dispatch when the caller supplies one.
func (h *PushHandler) TestPush(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "PushHandler.TestPush")
	defer span.End()

	if !h.config.HasVAPIDKeys() {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": errorz.ErrVAPIDNotConfigured.Error()})
	}

	var req testPushRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": errorz.ErrIdentityRequired.Error()})
	}

	// An explicit subscription in the request wins; otherwise look up the
	// registered one.
	rec := push.Record{UserID: req.UserID, CompanyID: req.CompanyID}
	if req.Subscription != nil && req.Subscription.Endpoint != "" {
		rec.Subscription = *req.Subscription
	} else {
		stored, ok := h.registry.Get(req.UserID, req.CompanyID)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"error": errorz.ErrSubscriptionNotFound.Error(),
				"stats": h.registry.Stats(),
			})
		}
		rec = stored
	}

	payload := h.dispatcher.BuildPayload(req.UserID, req.LatestDispatch)
	if err := h.dispatcher.DispatchToOne(ctx, rec, payload); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to send notification: " + err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Test notification sent successfully!",
		"userId":    req.UserID,
		"messageId": uuid.NewString(),
		"stats":     h.registry.Stats(),
	})
}

type dispatchPushRequest struct {
	UserID       string             `json:"userId"`
	CompanyID    string             `json:"companyId"`
	Notification *push.Notification `json:"notification"`
}

// DispatchPush fans a notification out to every device registered for the
// company (or, without a company, for the user). Partial failure is
// reported per recipient, not as an overall error.
func (h *PushHandler) DispatchPush(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "PushHandler.DispatchPush")
	defer span.End()

	if !h.config.HasVAPIDKeys() {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": errorz.ErrVAPIDNotConfigured.Error()})
	}

	var req dispatchPushRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if req.UserID == "" || req.Notification == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "user ID and notification data required"})
	}

	var recipients []push.Record
	if req.CompanyID != "" {
		recipients = h.registry.GetAllForCompany(req.CompanyID)
	} else {
		recipients = h.registry.GetAllForUser(req.UserID)
	}
	if len(recipients) == 0 {
		return c.JSON(http.StatusNotFound, map[string]any{
			"error": errorz.ErrSubscriptionNotFound.Error(),
			"stats": h.registry.Stats(),
		})
	}

	result := h.dispatcher.DispatchToMany(ctx, recipients, *req.Notification)

	return c.JSON(http.StatusOK, map[string]any{
		"success":            true,
		"sentCount":          result.SentCount,
		"totalSubscriptions": len(recipients),
		"notificationType":   req.Notification.Data.Type,
		"errors":             result.Errors,
		"stats":              h.registry.Stats(),
	})
}

// Stats exposes the registry's aggregate view.
func (h *PushHandler) Stats(c echo.Context) error {
	_, span := h.otelTracer.Start(c.Request().Context(), "PushHandler.Stats")
	defer span.End()
	return c.JSON(http.StatusOK, h.registry.Stats())
}
