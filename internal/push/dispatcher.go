package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tedtop/fuelrelay/internal/models"
)

// Notification is the payload the service worker on the receiving device
// unpacks. data.type tells the client whether this is a live fuel request
// or a test ping.
type Notification struct {
	Title              string           `json:"title"`
	Body               string           `json:"body"`
	Icon               string           `json:"icon"`
	Tag                string           `json:"tag"`
	RequireInteraction bool             `json:"requireInteraction"`
	Data               NotificationData `json:"data"`
}

type NotificationData struct {
	Type      string           `json:"type"`
	Timestamp string           `json:"timestamp"`
	UserID    string           `json:"userId"`
	Dispatch  *models.Dispatch `json:"dispatch"`
}

// DeliveryError records one failed recipient in a fan-out.
type DeliveryError struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// Result aggregates a best-effort fan-out: partial success is the normal
// case, not an error.
type Result struct {
	SentCount int             `json:"sentCount"`
	Errors    []DeliveryError `json:"errors,omitempty"`
}

// Dispatcher fans notifications out to registered subscriptions and prunes
// the registry when the transport reports an endpoint gone.
type Dispatcher struct {
	sender   Sender
	registry *Registry
	log      zerolog.Logger
	now      func() time.Time
}

func NewDispatcher(sender Sender, registry *Registry, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, registry: registry, log: log, now: time.Now}
}

// BuildPayload templates a notification from a dispatch record, or falls
// back to a fixed test notification when none is supplied. The tag carries
// a timestamp so repeated notifications for the same flight are never
// coalesced by the push service.
func (d *Dispatcher) BuildPayload(userID string, dispatch *models.Dispatch) Notification {
	now := d.now()
	n := Notification{
		Icon: "✈️",
		Data: NotificationData{
			Timestamp: now.UTC().Format(time.RFC3339),
			UserID:    userID,
			Dispatch:  dispatch,
		},
	}
	if dispatch != nil {
		n.Title = fmt.Sprintf("⛽ Fuel Request - %s", dispatch.FlightNumber)
		n.Body = fmt.Sprintf("%s to %s (%s) requested %.0f lbs of fuel",
			dispatch.FlightNumber, dispatch.Destination, dispatch.TailNumber, dispatch.QuantityInWeight)
		n.Tag = fmt.Sprintf("fuel-request-%s-%d", dispatch.FlightNumber, now.UnixMilli())
		n.Data.Type = "fuel_request"
	} else {
		n.Title = "✈️ Test Notification"
		n.Body = "No upcoming dispatches available at this time"
		n.Tag = fmt.Sprintf("test-notification-%d", now.UnixMilli())
		n.Data.Type = "test"
	}
	return n
}

// DispatchToOne sends a payload to a single record, pruning it from the
// registry if the transport reports the endpoint gone.
func (d *Dispatcher) DispatchToOne(ctx context.Context, rec Record, payload Notification) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := d.sender.Send(ctx, rec.Subscription, body); err != nil {
		if IsGone(err) {
			d.registry.RemoveInvalid(rec.UserID, rec.CompanyID)
			d.log.Info().Str("user", rec.UserID).Str("company", rec.CompanyID).
				Msg("removed invalid push subscription")
		}
		return err
	}
	return nil
}

// DispatchToMany delivers the payload to every recipient, best effort. One
// recipient failing never aborts the rest; gone endpoints are pruned as
// they are discovered. SentCount + len(Errors) always equals
// len(recipients).
func (d *Dispatcher) DispatchToMany(ctx context.Context, recipients []Record, payload Notification) Result {
	result := Result{}
	body, err := json.Marshal(payload)
	if err != nil {
		for _, rec := range recipients {
			result.Errors = append(result.Errors, DeliveryError{UserID: rec.UserID, Message: err.Error()})
		}
		return result
	}

	for _, rec := range recipients {
		if err := d.sender.Send(ctx, rec.Subscription, body); err != nil {
			d.log.Warn().Err(err).Str("user", rec.UserID).Msg("push delivery failed")
			result.Errors = append(result.Errors, DeliveryError{UserID: rec.UserID, Message: err.Error()})
			if IsGone(err) {
				d.registry.RemoveInvalid(rec.UserID, rec.CompanyID)
				d.log.Info().Str("user", rec.UserID).Str("company", rec.CompanyID).
					Msg("removed invalid push subscription")
			}
			continue
		}
		result.SentCount++
	}
	return result
}
