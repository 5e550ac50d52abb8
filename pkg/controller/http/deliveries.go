package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/domain/types"
)

const (
	defaultDeliveryLimit = 20
	maxDeliveryLimit     = 100
)

// DeliveryHandler serves the delivery history API
type DeliveryHandler struct {
	store interfaces.DeliveryStore
}

// NewDeliveryHandler creates a new DeliveryHandler
func NewDeliveryHandler(store interfaces.DeliveryStore) *DeliveryHandler {
	return &DeliveryHandler{store: store}
}

// List returns recent deliveries, newest first
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultDeliveryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, goerr.New("limit must be a positive integer"), http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	if limit > maxDeliveryLimit {
		limit = maxDeliveryLimit
	}

	deliveries, err := h.store.Recent(ctx, limit)
	if err != nil {
		ctxlog.From(ctx).Error("Failed to list deliveries", "error", err)
		writeError(w, goerr.New("failed to list deliveries"), http.StatusInternalServerError)
		return
	}
	if deliveries == nil {
		deliveries = []*model.Delivery{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(struct {
		Deliveries []*model.Delivery `json:"deliveries"`
	}{Deliveries: deliveries}); err != nil {
		ctxlog.From(ctx).Error("Failed to encode deliveries response", "error", err)
	}
}

// Get returns a single delivery by ID
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "deliveryID")
	delivery, err := h.store.Get(ctx, types.DeliveryID(id))
	if err != nil {
		if errors.Is(err, types.ErrDeliveryNotFound) {
			writeError(w, goerr.New("delivery not found"), http.StatusNotFound)
			return
		}
		ctxlog.From(ctx).Error("Failed to get delivery", "error", err, "id", id)
		writeError(w, goerr.New("failed to get delivery"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(delivery); err != nil {
		ctxlog.From(ctx).Error("Failed to encode delivery response", "error", err)
	}
}
