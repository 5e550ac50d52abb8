package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	controller "github.com/m-mizutani/stevedore/pkg/controller/http"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/domain/types"
	"github.com/m-mizutani/stevedore/pkg/infra/store"
)

func deliveriesTestServer(t *testing.T) (*controller.Server, *store.Memory) {
	t.Helper()

	deliveryStore := store.NewMemory()
	server, err := controller.NewServer(
		context.Background(),
		&stubWebhookUC{},
		controller.WithAddr("localhost:0"),
		controller.WithWebhookSecret("test-secret"),
		controller.WithStore(deliveryStore),
	)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return server, deliveryStore
}

func seedDelivery(t *testing.T, s *store.Memory, id string, receivedAt time.Time) {
	t.Helper()

	err := s.Insert(context.Background(), &model.Delivery{
		ID:         types.DeliveryID(id),
		Repository: "alex-dukhno/database",
		ReleaseID:  42,
		TagName:    "v0.1.0",
		Ref:        "refs/tags/v0.1.0",
		Status:     model.DeliverySucceeded,
		ReceivedAt: receivedAt,
	})
	if err != nil {
		t.Fatalf("Failed to seed delivery: %v", err)
	}
}

func TestDeliveriesList(t *testing.T) {
	server, deliveryStore := deliveriesTestServer(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedDelivery(t, deliveryStore, "older", base)
	seedDelivery(t, deliveryStore, "newer", base.Add(time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/api/deliveries", nil)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status code = %v, want %v", w.Code, http.StatusOK)
	}

	var response struct {
		Deliveries []*model.Delivery `json:"deliveries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(response.Deliveries) != 2 {
		t.Fatalf("Deliveries = %d, want 2", len(response.Deliveries))
	}
	if response.Deliveries[0].ID != types.DeliveryID("newer") {
		t.Errorf("First delivery = %v, want newer", response.Deliveries[0].ID)
	}
}

func TestDeliveriesListLimit(t *testing.T) {
	server, deliveryStore := deliveriesTestServer(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedDelivery(t, deliveryStore, "first", base)
	seedDelivery(t, deliveryStore, "second", base.Add(time.Minute))
	seedDelivery(t, deliveryStore, "third", base.Add(2*time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/api/deliveries?limit=1", nil)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status code = %v, want %v", w.Code, http.StatusOK)
	}

	var response struct {
		Deliveries []*model.Delivery `json:"deliveries"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Deliveries) != 1 {
		t.Errorf("Deliveries = %d, want 1", len(response.Deliveries))
	}
}

func TestDeliveriesListBadLimit(t *testing.T) {
	server, _ := deliveriesTestServer(t)

	for _, limit := range []string{"abc", "0", "-5"} {
		req := httptest.NewRequest(http.MethodGet, "/api/deliveries?limit="+limit, nil)
		w := httptest.NewRecorder()
		server.Handler.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status code = %v, want %v", limit, w.Code, http.StatusBadRequest)
		}
	}
}

func TestDeliveriesGet(t *testing.T) {
	server, deliveryStore := deliveriesTestServer(t)
	seedDelivery(t, deliveryStore, "delivery-1", time.Now())

	req := httptest.NewRequest(http.MethodGet, "/api/deliveries/delivery-1", nil)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status code = %v, want %v", w.Code, http.StatusOK)
	}

	var delivery model.Delivery
	if err := json.NewDecoder(w.Body).Decode(&delivery); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if delivery.Repository != "alex-dukhno/database" {
		t.Errorf("Repository = %v, want alex-dukhno/database", delivery.Repository)
	}
}

func TestDeliveriesGetNotFound(t *testing.T) {
	server, _ := deliveriesTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/deliveries/no-such-delivery", nil)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusNotFound)
	}
}
