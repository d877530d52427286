package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NeoOne601/ventro/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu         sync.Mutex
	endpoints  []Endpoint
	deliveries []Delivery
}

func (s *fakeStore) EndpointsForEvent(_ context.Context, orgID string, _ domain.WebhookEvent) ([]Endpoint, error) {
	var out []Endpoint
	for _, e := range s.endpoints {
		if e.OrgID == orgID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) RecordDelivery(_ context.Context, d Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, d)
	return nil
}

func noSleep(time.Duration) {}

func TestDispatchSignsBodyAndSetsEventHeaders(t *testing.T) {
	var gotEvent, gotSig, gotDelivery string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = r.Header.Get("X-Ventro-Event")
		gotSig = r.Header.Get("X-Ventro-Signature")
		gotDelivery = r.Header.Get("X-Ventro-Delivery")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := &fakeStore{endpoints: []Endpoint{{ID: "ep-1", OrgID: "org-1", URL: server.URL, Secret: "shh", Active: true}}}
	d := &Dispatcher{Store: store, Client: http.DefaultClient, sleep: noSleep}

	err := d.Dispatch(context.Background(), "org-1", domain.WebhookReconciliationCompleted, map[string]string{"session_id": "s1"})
	require.NoError(t, err)

	assert.Equal(t, "reconciliation.completed", gotEvent)
	assert.NotEmpty(t, gotDelivery)
	assert.True(t, VerifySignature("shh", gotBody, gotSig))

	require.Len(t, store.deliveries, 1)
	assert.Equal(t, DeliveryDelivered, store.deliveries[0].Status)
	assert.Equal(t, 1, store.deliveries[0].Attempts)
}

func TestDispatchRetriesOnFailureThenRecordsEachAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := &fakeStore{endpoints: []Endpoint{{ID: "ep-1", OrgID: "org-1", URL: server.URL, Secret: "shh", Active: true}}}
	d := &Dispatcher{Store: store, Client: http.DefaultClient, sleep: noSleep}

	err := d.Dispatch(context.Background(), "org-1", domain.WebhookSessionFailed, map[string]string{})
	require.NoError(t, err)

	require.Len(t, store.deliveries, 3)
	assert.Equal(t, DeliveryFailed, store.deliveries[0].Status)
	assert.Equal(t, DeliveryFailed, store.deliveries[1].Status)
	assert.Equal(t, DeliveryDelivered, store.deliveries[2].Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDispatchExhaustsLadderAndRecordsFinalFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := &fakeStore{endpoints: []Endpoint{{ID: "ep-1", OrgID: "org-1", URL: server.URL, Secret: "shh", Active: true}}}
	d := &Dispatcher{Store: store, Client: http.DefaultClient, sleep: noSleep}

	err := d.Dispatch(context.Background(), "org-1", domain.WebhookTestPing, map[string]string{})
	require.NoError(t, err)

	require.Len(t, store.deliveries, len(retryLadder))
	for _, del := range store.deliveries {
		assert.Equal(t, DeliveryFailed, del.Status)
	}
}

func TestDispatchSkipsEndpointsNotSubscribedToEvent(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := &fakeStore{endpoints: []Endpoint{{
		ID: "ep-1", OrgID: "org-1", URL: server.URL, Secret: "shh", Active: true,
		Events: []domain.WebhookEvent{domain.WebhookUserCreated},
	}}}
	d := &Dispatcher{Store: store, Client: http.DefaultClient, sleep: noSleep}

	err := d.Dispatch(context.Background(), "org-1", domain.WebhookSessionFailed, map[string]string{})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Empty(t, store.deliveries)
}
