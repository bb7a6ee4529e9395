package push

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tedtop/fuelrelay/internal/models"
)

// fakeSender fails with a configured status per endpoint and records
// delivered payloads.
type fakeSender struct {
	failWith  map[string]int // endpoint -> status
	delivered []string
}

func (f *fakeSender) Send(_ context.Context, sub webpush.Subscription, payload []byte) error {
	if status, ok := f.failWith[sub.Endpoint]; ok {
		return &StatusError{StatusCode: status}
	}
	f.delivered = append(f.delivered, string(payload))
	return nil
}

func TestDispatchToManyPrunesGoneSubscriptions(t *testing.T) {
	r := NewRegistry()
	r.Add("u1", "c1", sub("https://push.example/u1"))
	r.Add("u2", "c1", sub("https://push.example/u2"))

	sender := &fakeSender{failWith: map[string]int{"https://push.example/u2": http.StatusGone}}
	d := NewDispatcher(sender, r, zerolog.Nop())

	payload := d.BuildPayload("u1", &models.Dispatch{
		FlightNumber: "QT100", Destination: "LAX", TailNumber: "N1", QuantityInWeight: 500,
	})
	result := d.DispatchToMany(context.Background(), r.GetAllForCompany("c1"), payload)

	require.Equal(t, 1, result.SentCount)
	require.Len(t, result.Errors, 1)
	require.Equal(t, "u2", result.Errors[0].UserID)

	// u2 pruned, u1 untouched.
	_, ok := r.Get("u2", "c1")
	require.False(t, ok)
	_, ok = r.Get("u1", "c1")
	require.True(t, ok)
}

func TestDispatchToManyTransientFailureNotPruned(t *testing.T) {
	r := NewRegistry()
	r.Add("u1", "c1", sub("https://push.example/u1"))

	sender := &fakeSender{failWith: map[string]int{"https://push.example/u1": http.StatusTooManyRequests}}
	d := NewDispatcher(sender, r, zerolog.Nop())

	result := d.DispatchToMany(context.Background(), r.GetAllForCompany("c1"), d.BuildPayload("u1", nil))
	require.Zero(t, result.SentCount)
	require.Len(t, result.Errors, 1)

	_, ok := r.Get("u1", "c1")
	require.True(t, ok)
}

func TestDispatchToManyCountsAddUp(t *testing.T) {
	r := NewRegistry()
	r.Add("u1", "c1", sub("https://push.example/u1"))
	r.Add("u2", "c1", sub("https://push.example/u2"))
	r.Add("u3", "c1", sub("https://push.example/u3"))

	sender := &fakeSender{failWith: map[string]int{"https://push.example/u2": http.StatusNotFound}}
	d := NewDispatcher(sender, r, zerolog.Nop())

	recipients := r.GetAllForCompany("c1")
	result := d.DispatchToMany(context.Background(), recipients, d.BuildPayload("u1", nil))
	require.Equal(t, len(recipients), result.SentCount+len(result.Errors))
}

func TestBuildPayloadFromDispatch(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, NewRegistry(), zerolog.Nop())
	d.now = func() time.Time { return time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC) }

	n := d.BuildPayload("u1", &models.Dispatch{
		FlightNumber: "QT100", Destination: "LAX", TailNumber: "N1", QuantityInWeight: 500,
	})
	require.Equal(t, "⛽ Fuel Request - QT100", n.Title)
	require.Equal(t, "QT100 to LAX (N1) requested 500 lbs of fuel", n.Body)
	require.Equal(t, "fuel_request", n.Data.Type)
	require.Contains(t, n.Tag, "fuel-request-QT100-")

	// Repeated builds for the same flight must not share a tag once the
	// clock moves.
	d.now = func() time.Time { return time.Date(2025, 8, 1, 12, 0, 1, 0, time.UTC) }
	n2 := d.BuildPayload("u1", &models.Dispatch{FlightNumber: "QT100"})
	require.NotEqual(t, n.Tag, n2.Tag)
}

func TestBuildPayloadFallback(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, NewRegistry(), zerolog.Nop())
	n := d.BuildPayload("u1", nil)
	require.Equal(t, "✈️ Test Notification", n.Title)
	require.Equal(t, "No upcoming dispatches available at this time", n.Body)
	require.Equal(t, "test", n.Data.Type)
	require.Nil(t, n.Data.Dispatch)
}

func TestDispatchToOneGonePrunes(t *testing.T) {
	r := NewRegistry()
	r.Add("u1", "c1", sub("https://push.example/u1"))
	rec, _ := r.Get("u1", "c1")

	sender := &fakeSender{failWith: map[string]int{"https://push.example/u1": http.StatusGone}}
	d := NewDispatcher(sender, r, zerolog.Nop())

	err := d.DispatchToOne(context.Background(), rec, d.BuildPayload("u1", nil))
	require.Error(t, err)
	require.True(t, IsGone(err))
	_, ok := r.Get("u1", "c1")
	require.False(t, ok)
}

func TestDeliveredPayloadIsJSON(t *testing.T) {
	r := NewRegistry()
	r.Add("u1", "c1", sub("https://push.example/u1"))

	sender := &fakeSender{}
	d := NewDispatcher(sender, r, zerolog.Nop())
	d.DispatchToMany(context.Background(), r.GetAllForCompany("c1"), d.BuildPayload("u1", nil))

	require.Len(t, sender.delivered, 1)
	var n Notification
	require.NoError(t, json.Unmarshal([]byte(sender.delivered[0]), &n))
	require.Equal(t, "test", n.Data.Type)
}
