package push

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Sender delivers a raw payload to one subscription endpoint.
type Sender interface {
	Send(ctx context.Context, sub webpush.Subscription, payload []byte) error
}

// StatusError is a push-service rejection carrying the HTTP status code.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("push service returned status %d", e.StatusCode)
}

// Gone reports whether the subscription endpoint is permanently invalid
// and should be pruned from the registry.
func (e *StatusError) Gone() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// IsGone reports whether err carries a permanently-invalid endpoint status.
func IsGone(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Gone()
}

// VAPIDConfig holds the keys and contact identity web-push delivery signs
// with.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Email      string
}

// WebPushSender delivers payloads through the web-push protocol with VAPID
// authentication.
type WebPushSender struct {
	vapid VAPIDConfig
}

func NewWebPushSender(vapid VAPIDConfig) *WebPushSender {
	return &WebPushSender{vapid: vapid}
}

func (s *WebPushSender) Send(ctx context.Context, sub webpush.Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &sub, &webpush.Options{
		Subscriber:      "mailto:" + s.vapid.Email,
		VAPIDPublicKey:  s.vapid.PublicKey,
		VAPIDPrivateKey: s.vapid.PrivateKey,
		TTL:             60,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
