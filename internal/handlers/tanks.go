package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	errorz "github.com/tedtop/fuelrelay/internal/errors"
	"github.com/tedtop/fuelrelay/internal/tanks"
)

type TanksHandler struct {
	ledger     tanks.Ledger
	otelTracer trace.Tracer
}

func NewTanksHandler(ledger tanks.Ledger, otelTracer trace.Tracer) *TanksHandler {
	return &TanksHandler{ledger: ledger, otelTracer: otelTracer}
}

type tankView struct {
	Level       float64    `json:"level"`
	MaxLevel    float64    `json:"maxLevel"`
	FuelType    string     `json:"fuelType"`
	Capacity    int        `json:"capacity"`
	Name        string     `json:"name"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// List merges the static catalog with the latest persisted reading per
// tank. Tanks with no readings report level zero.
func (h *TanksHandler) List(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "TanksHandler.List")
	defer span.End()

	views := make(map[string]tankView, len(tanks.Catalog))
	for id, tank := range tanks.Catalog {
		views[id] = tankView{
			MaxLevel: tank.MaxLevel,
			FuelType: tank.FuelType,
			Capacity: tank.Capacity,
			Name:     tank.Name,
		}
	}

	available := h.ledger.Available(ctx)
	if available {
		latest, err := h.ledger.LatestPerTank(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]any{
				"success": false, "error": errorz.ErrDatabaseError.Error(),
			})
		}
		for _, reading := range latest {
			view, ok := views[reading.TankID]
			if !ok {
				continue
			}
			recordedAt := reading.RecordedAt
			view.Level = reading.Level
			view.LastUpdated = &recordedAt
			views[reading.TankID] = view
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":     true,
		"tanks":       views,
		"dbConnected": available,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

type tankUpdateRequest struct {
	TankID string   `json:"tankId"`
	Level  *float64 `json:"level"`
}

// Update appends a reading for a tank. The tank id comes from the path
// param when present, otherwise from the body.
func (h *TanksHandler) Update(c echo.Context) error {
	ctx, span := h.otelTracer.Start(c.Request().Context(), "TanksHandler.Update")
	defer span.End()

	var req tankUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
	}
	if id := c.Param("tankId"); id != "" {
		req.TankID = id
	}
	if req.Level == nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "level required"})
	}

	reading, err := h.ledger.Record(ctx, req.TankID, *req.Level)
	if err != nil {
		tank := tanks.Catalog[req.TankID]
		switch {
		case errors.Is(err, errorz.ErrUnknownTank):
			return c.JSON(http.StatusNotFound, map[string]any{"success": false, "error": errorz.ErrUnknownTank.Error()})
		case errors.Is(err, errorz.ErrLevelOutOfRange):
			return c.JSON(http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   fmt.Sprintf("Level must be between 0 and %g inches", tank.MaxLevel),
			})
		case errors.Is(err, errorz.ErrLedgerUnavailable):
			return c.JSON(http.StatusServiceUnavailable, map[string]any{"success": false, "error": errorz.ErrLedgerUnavailable.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": errorz.ErrDatabaseError.Error()})
		}
	}

	tank := tanks.Catalog[req.TankID]
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Tank %s updated successfully", req.TankID),
		"tank": tankView{
			Level:       reading.Level,
			MaxLevel:    tank.MaxLevel,
			FuelType:    tank.FuelType,
			Capacity:    tank.Capacity,
			Name:        tank.Name,
			LastUpdated: &reading.RecordedAt,
		},
	})
}
