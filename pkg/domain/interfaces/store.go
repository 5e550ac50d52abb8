package interfaces

import (
	"context"

	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/domain/types"
)

// DeliveryStore persists delivery records. Insert claims a delivery ID and
// fails with types.ErrDeliveryExists when the ID is already present, which
// is what keeps webhook redeliveries from running a second job.
type DeliveryStore interface {
	Insert(ctx context.Context, delivery *model.Delivery) error
	Update(ctx context.Context, delivery *model.Delivery) error

	// Get returns the delivery for an ID, or types.ErrDeliveryNotFound.
	Get(ctx context.Context, id types.DeliveryID) (*model.Delivery, error)

	// FindByRelease returns deliveries recorded for a release, newest first.
	FindByRelease(ctx context.Context, repository string, releaseID int64) ([]*model.Delivery, error)

	// Recent returns the most recently received deliveries, newest first.
	Recent(ctx context.Context, limit int) ([]*model.Delivery, error)

	Close() error
}
