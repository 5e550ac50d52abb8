package interfaces

import (
	"context"

	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

// Notifier announces terminal delivery states to an external channel.
type Notifier interface {
	NotifyDelivery(ctx context.Context, delivery *model.Delivery) error
}

// BuildLogStore archives the captured build output of a delivery and
// returns a location string (file path, gs:// URL, ...) recorded on the
// delivery.
type BuildLogStore interface {
	Save(ctx context.Context, id string, log []byte) (string, error)
}
