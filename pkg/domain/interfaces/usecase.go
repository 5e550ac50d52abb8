package interfaces

import (
	"context"

	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent processes a webhook event
	ProcessEvent(ctx context.Context, event *model.WebhookEvent) error
}

// CheckoutUseCase defines the interface for fetching release source code
type CheckoutUseCase interface {
	// CheckoutRelease downloads the source zipball for the release tag and
	// extracts it to a temporary directory
	CheckoutRelease(ctx context.Context, info *model.ReleaseInfo) (*model.Checkout, error)
}

// ShipUseCase defines the checkout, build and push pipeline for a release.
type ShipUseCase interface {
	// ShipRelease runs the full pipeline for a claimed delivery and updates
	// its record as the pipeline progresses.
	ShipRelease(ctx context.Context, delivery *model.Delivery) error
}
