// Package webhooks delivers outbound event notifications to org-configured
// endpoints, HMAC-signed and retried on a fixed ladder, per spec.md §6.
package webhooks

import (
	"context"

	"github.com/NeoOne601/ventro/pkg/domain"
)

// Endpoint is one org's subscription to outbound events.
type Endpoint struct {
	ID     string
	OrgID  string
	URL    string
	Secret string
	Events []domain.WebhookEvent
	Active bool
}

// Subscribes reports whether e should receive event — an empty Events set
// means "all events", per spec.md §4.16's WebhookEndpoint schema comment.
func (e Endpoint) Subscribes(event domain.WebhookEvent) bool {
	if !e.Active {
		return false
	}
	if len(e.Events) == 0 {
		return true
	}
	for _, subscribed := range e.Events {
		if subscribed == event {
			return true
		}
	}
	return false
}

// DeliveryStatus is one attempt's outcome.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Delivery records one attempted POST to one endpoint for one event, per
// spec.md §6's "every attempt logged".
type Delivery struct {
	ID             string
	EndpointID     string
	Event          string
	Payload        []byte
	Status         DeliveryStatus
	Attempts       int
	ResponseStatus int
	Error          string
}

// Store is the narrow persistence capability C16 supplies: which
// endpoints are subscribed to an event, and recording each delivery
// attempt for audit.
type Store interface {
	EndpointsForEvent(ctx context.Context, orgID string, event domain.WebhookEvent) ([]Endpoint, error)
	RecordDelivery(ctx context.Context, d Delivery) error
}
