package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/domain/types"
	"github.com/m-mizutani/stevedore/pkg/infra/store"
)

func testDelivery(id string, receivedAt time.Time) *model.Delivery {
	return &model.Delivery{
		ID:         types.DeliveryID(id),
		Repository: "alex-dukhno/database",
		ReleaseID:  12345,
		TagName:    "v0.1.0",
		Ref:        "refs/tags/v0.1.0",
		Status:     model.DeliveryQueued,
		ReceivedAt: receivedAt,
	}
}

func TestMemoryInsertClaimsOnce(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	d := testDelivery("delivery-1", time.Now())
	gt.NoError(t, s.Insert(ctx, d))

	err := s.Insert(ctx, d)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrDeliveryExists))
}

func TestMemoryInsertCopies(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	d := testDelivery("delivery-1", time.Now())
	gt.NoError(t, s.Insert(ctx, d))

	// Mutating the caller's struct must not affect the stored record
	d.Status = model.DeliveryFailed

	got, err := s.Get(ctx, types.DeliveryID("delivery-1"))
	gt.NoError(t, err)
	gt.Value(t, got.Status).Equal(model.DeliveryQueued)
}

func TestMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	d := testDelivery("delivery-1", time.Now())
	gt.NoError(t, s.Insert(ctx, d))

	d.Status = model.DeliverySucceeded
	d.Image = "docker.pkg.github.com/alex-dukhno/database/database:v0.1.0"
	gt.NoError(t, s.Update(ctx, d))

	got, err := s.Get(ctx, d.ID)
	gt.NoError(t, err)
	gt.Value(t, got.Status).Equal(model.DeliverySucceeded)
	gt.Value(t, got.Image).Equal("docker.pkg.github.com/alex-dukhno/database/database:v0.1.0")
}

func TestMemoryUpdateMissing(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	err := s.Update(ctx, testDelivery("ghost", time.Now()))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrDeliveryNotFound))
}

func TestMemoryGetMissing(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	_, err := s.Get(ctx, types.DeliveryID("ghost"))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrDeliveryNotFound))
}

func TestMemoryFindByRelease(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	d1 := testDelivery("delivery-1", time.Now())
	d2 := testDelivery("delivery-2", time.Now())
	d2.ReleaseID = 99999
	d3 := testDelivery("delivery-3", time.Now())
	d3.Repository = "other/repo"

	gt.NoError(t, s.Insert(ctx, d1))
	gt.NoError(t, s.Insert(ctx, d2))
	gt.NoError(t, s.Insert(ctx, d3))

	found, err := s.FindByRelease(ctx, "alex-dukhno/database", 12345)
	gt.NoError(t, err)
	gt.Number(t, len(found)).Equal(1)
	gt.Value(t, found[0].ID).Equal(types.DeliveryID("delivery-1"))
}

func TestMemoryRecent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"oldest", "middle", "newest"} {
		d := testDelivery(id, base.Add(time.Duration(i)*time.Minute))
		gt.NoError(t, s.Insert(ctx, d))
	}

	recent, err := s.Recent(ctx, 2)
	gt.NoError(t, err)
	gt.Number(t, len(recent)).Equal(2)
	gt.Value(t, recent[0].ID).Equal(types.DeliveryID("newest"))
	gt.Value(t, recent[1].ID).Equal(types.DeliveryID("middle"))
}
