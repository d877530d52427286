package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/NeoOne601/ventro/ent/webhookdelivery"
	"github.com/NeoOne601/ventro/ent/webhookendpoint"
	"github.com/NeoOne601/ventro/pkg/database"
	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/NeoOne601/ventro/pkg/webhooks"
	"github.com/google/uuid"
)

// WebhookStore implements webhooks.Store over the WebhookEndpoint and
// WebhookDelivery entities.
type WebhookStore struct {
	client *database.Client
}

var _ webhooks.Store = (*WebhookStore)(nil)

// EndpointsForEvent returns all of an org's active endpoints. The event
// argument is not used for filtering; callers such as Dispatcher.Dispatch
// check Endpoint.Subscribes themselves.
func (s *WebhookStore) EndpointsForEvent(ctx context.Context, orgID string, _ domain.WebhookEvent) ([]webhooks.Endpoint, error) {
	rows, err := s.client.WebhookEndpoint.Query().
		Where(
			webhookendpoint.OrgIDEQ(orgID),
			webhookendpoint.ActiveEQ(true),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying webhook endpoints for org %s: %w", orgID, err)
	}

	out := make([]webhooks.Endpoint, len(rows))
	for i, row := range rows {
		events := make([]domain.WebhookEvent, len(row.Events))
		for j, e := range row.Events {
			events[j] = domain.WebhookEvent(e)
		}
		out[i] = webhooks.Endpoint{
			ID:     row.ID,
			OrgID:  row.OrgID,
			URL:    row.URL,
			Secret: row.Secret,
			Events: events,
			Active: row.Active,
		}
	}
	return out, nil
}

// RecordDelivery persists one delivery attempt, stamping DeliveredAt when
// the attempt succeeded.
func (s *WebhookStore) RecordDelivery(ctx context.Context, d webhooks.Delivery) error {
	create := s.client.WebhookDelivery.Create().
		SetID(uuid.NewString()).
		SetEndpointID(d.EndpointID).
		SetEvent(d.Event).
		SetPayload(d.Payload).
		SetStatus(webhookdelivery.Status(d.Status)).
		SetAttempts(d.Attempts).
		SetNillableResponseStatus(nonZeroIntPtr(d.ResponseStatus)).
		SetNillableLastError(nonEmptyPtr(d.Error))

	if d.Status == webhooks.DeliveryDelivered {
		now := time.Now()
		create = create.SetDeliveredAt(now)
	}

	if _, err := create.Save(ctx); err != nil {
		return fmt.Errorf("recording webhook delivery to endpoint %s: %w", d.EndpointID, err)
	}
	return nil
}

// CreateEndpoint registers a new outbound subscription, called from the
// /admin/webhooks handler.
func (s *WebhookStore) CreateEndpoint(ctx context.Context, e webhooks.Endpoint) (webhooks.Endpoint, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	events := make([]string, len(e.Events))
	for i, ev := range e.Events {
		events[i] = string(ev)
	}

	row, err := s.client.WebhookEndpoint.Create().
		SetID(e.ID).
		SetOrgID(e.OrgID).
		SetURL(e.URL).
		SetSecret(e.Secret).
		SetEvents(events).
		SetActive(true).
		Save(ctx)
	if err != nil {
		return webhooks.Endpoint{}, fmt.Errorf("creating webhook endpoint for org %s: %w", e.OrgID, err)
	}
	return webhooks.Endpoint{
		ID: row.ID, OrgID: row.OrgID, URL: row.URL, Secret: row.Secret,
		Events: e.Events, Active: row.Active,
	}, nil
}

// DeactivateEndpoint flips an endpoint's Active flag off without deleting
// its delivery history.
func (s *WebhookStore) DeactivateEndpoint(ctx context.Context, endpointID string) error {
	n, err := s.client.WebhookEndpoint.Update().
		Where(webhookendpoint.IDEQ(endpointID)).
		SetActive(false).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("deactivating webhook endpoint %s: %w", endpointID, err)
	}
	if n == 0 {
		return fmt.Errorf("deactivating webhook endpoint %s: not found", endpointID)
	}
	return nil
}

func nonZeroIntPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
