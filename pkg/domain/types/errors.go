package types

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrDeliveryExists is returned by DeliveryStore.Insert when the delivery ID
	// has already been claimed. The webhook usecase relies on it to run exactly
	// one job per delivery.
	ErrDeliveryExists = goerr.New("delivery already exists")

	// ErrDeliveryNotFound is returned by DeliveryStore.Get for unknown IDs.
	ErrDeliveryNotFound = goerr.New("delivery not found")

	// ErrTargetNotFound is returned when no policy target covers a repository.
	ErrTargetNotFound = goerr.New("no shipping target for repository")
)
