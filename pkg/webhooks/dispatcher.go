package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/metrics"
	"github.com/google/uuid"
)

// retryLadder is the fixed backoff schedule spec.md §6 specifies:
// immediate, then 1s, 4s, 16s.
var retryLadder = []time.Duration{0, time.Second, 4 * time.Second, 16 * time.Second}

// HTTPDoer is the narrow capability Dispatcher needs from an HTTP client,
// satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Dispatcher delivers one event to every org endpoint subscribed to it,
// signing the body and retrying on the fixed ladder, per spec.md §6.
type Dispatcher struct {
	Store  Store
	Client HTTPDoer
	// sleep is overridden in tests to avoid real delays between attempts.
	sleep func(time.Duration)
}

// NewDispatcher constructs a Dispatcher with a real HTTP client and real sleeps.
func NewDispatcher(store Store, client HTTPDoer) *Dispatcher {
	return &Dispatcher{Store: store, Client: client, sleep: time.Sleep}
}

// Dispatch marshals payload and sends it to every endpoint in orgID
// subscribed to event, one delivery attempt ladder per endpoint.
func (d *Dispatcher) Dispatch(ctx context.Context, orgID string, event domain.WebhookEvent, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload for %s: %w", event, err)
	}

	endpoints, err := d.Store.EndpointsForEvent(ctx, orgID, event)
	if err != nil {
		return fmt.Errorf("resolving webhook endpoints for org %s: %w", orgID, err)
	}

	for _, endpoint := range endpoints {
		if !endpoint.Subscribes(event) {
			continue
		}
		d.deliverWithRetry(ctx, endpoint, event, body)
	}
	return nil
}

// deliverWithRetry attempts delivery on retryLadder's schedule, recording
// every attempt. A delivery failure never aborts the dispatch loop for
// other endpoints — webhook delivery is best-effort per spec.md §6.
func (d *Dispatcher) deliverWithRetry(ctx context.Context, endpoint Endpoint, event domain.WebhookEvent, body []byte) {
	deliveryID := uuid.NewString()
	var lastStatus int
	var lastErr error

	for attempt, delay := range retryLadder {
		if delay > 0 {
			d.sleepFor(delay)
		}

		status, err := d.send(ctx, endpoint, event, deliveryID, body)
		lastStatus, lastErr = status, err

		record := Delivery{
			ID:             deliveryID,
			EndpointID:     endpoint.ID,
			Event:          string(event),
			Payload:        body,
			Attempts:       attempt + 1,
			ResponseStatus: status,
		}
		if err == nil && status >= 200 && status < 300 {
			record.Status = DeliveryDelivered
			_ = d.Store.RecordDelivery(ctx, record)
			metrics.WebhookDeliveries.WithLabelValues(string(event), "delivered").Inc()
			return
		}
		if err != nil {
			record.Error = err.Error()
		}
		record.Status = DeliveryFailed
		_ = d.Store.RecordDelivery(ctx, record)
	}

	metrics.WebhookDeliveries.WithLabelValues(string(event), "failed").Inc()
	_ = lastStatus
	_ = lastErr
}

func (d *Dispatcher) sleepFor(delay time.Duration) {
	if d.sleep != nil {
		d.sleep(delay)
		return
	}
	time.Sleep(delay)
}

func (d *Dispatcher) send(ctx context.Context, endpoint Endpoint, event domain.WebhookEvent, deliveryID string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Ventro-Event", string(event))
	req.Header.Set("X-Ventro-Delivery", deliveryID)
	req.Header.Set("X-Ventro-Signature", Sign(endpoint.Secret, body))

	resp, err := d.Client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("delivering webhook to %s: %w", endpoint.URL, err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
