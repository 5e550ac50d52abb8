package store

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/domain/types"
)

// Memory is an in-memory DeliveryStore. It is used for tests and for
// single-node deployments that can afford to lose delivery history on
// restart. All methods copy records on the way in and out so callers
// cannot mutate stored state.
type Memory struct {
	mu         sync.RWMutex
	deliveries map[types.DeliveryID]*model.Delivery
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		deliveries: make(map[types.DeliveryID]*model.Delivery),
	}
}

// Insert claims a delivery ID. A second insert with the same ID fails with
// types.ErrDeliveryExists, which is how redelivered webhooks are deduplicated.
func (s *Memory) Insert(ctx context.Context, d *model.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deliveries[d.ID]; exists {
		return goerr.Wrap(types.ErrDeliveryExists, "delivery already claimed", goerr.V("id", d.ID))
	}

	cp := *d
	s.deliveries[d.ID] = &cp
	return nil
}

// Update overwrites an existing delivery record.
func (s *Memory) Update(ctx context.Context, d *model.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.deliveries[d.ID]; !exists {
		return goerr.Wrap(types.ErrDeliveryNotFound, "cannot update delivery", goerr.V("id", d.ID))
	}

	cp := *d
	s.deliveries[d.ID] = &cp
	return nil
}

// Get returns a copy of the delivery with the given ID.
func (s *Memory) Get(ctx context.Context, id types.DeliveryID) (*model.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.deliveries[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrDeliveryNotFound, "delivery not found", goerr.V("id", id))
	}

	cp := *d
	return &cp, nil
}

// FindByRelease returns all deliveries recorded for a release.
func (s *Memory) FindByRelease(ctx context.Context, repository string, releaseID int64) ([]*model.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*model.Delivery
	for _, d := range s.deliveries {
		if d.Repository == repository && d.ReleaseID == releaseID {
			cp := *d
			results = append(results, &cp)
		}
	}
	return results, nil
}

// Recent returns up to limit deliveries ordered by receive time, newest first.
func (s *Memory) Recent(ctx context.Context, limit int) ([]*model.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*model.Delivery, 0, len(s.deliveries))
	for _, d := range s.deliveries {
		cp := *d
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ReceivedAt.After(results[j].ReceivedAt)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Close is a no-op for the memory store.
func (s *Memory) Close() error {
	return nil
}
