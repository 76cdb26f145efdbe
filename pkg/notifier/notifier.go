package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind identifies the marketplace change a notification describes.
type Kind string

const (
	KindListingCreated  Kind = "listing.created"
	KindListingUpdated  Kind = "listing.updated"
	KindPurchaseCreated Kind = "purchase.created"
	KindPurchaseUpdated Kind = "purchase.updated"
)

// Notifier fans a persisted record out to a push-notification backend.
// Delivery is fire-and-forget: the pipeline logs failures and keeps going.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, record any) error
}

// envelope is the wire format posted to the notification backend.
type envelope struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Record    any       `json:"record"`
	Timestamp time.Time `json:"timestamp"`
}

// WebhookNotifier delivers notifications to a single HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookNotifier creates a notifier posting to url
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Notify posts a JSON envelope describing the change. A non-2xx response is
// reported as an error; the caller decides whether that matters.
func (n *WebhookNotifier) Notify(ctx context.Context, kind Kind, record any) error {
	body, err := json.Marshal(envelope{
		ID:        uuid.NewString(),
		Kind:      kind,
		Record:    record,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification backend returned %s", resp.Status)
	}

	n.logger.Debug("Notification delivered", zap.String("kind", string(kind)))
	return nil
}

// NopNotifier discards notifications. Used when no backend is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Kind, any) error { return nil }
