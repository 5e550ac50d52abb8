package types

// Version is the stevedore version, overridden at build time via
// -ldflags "-X github.com/m-mizutani/stevedore/pkg/domain/types.Version=..."
var Version = "dev"

// ServiceName identifies this service in health responses, commit statuses
// and notifications.
const ServiceName = "stevedore"

// CommitStatusContext is the status context stevedore reports on release commits.
const CommitStatusContext = "stevedore/ship"

// DeliveryID identifies a single shipping job. It is the GitHub webhook
// delivery ID when the job originates from a webhook, or a generated UUID
// for one-shot CLI runs.
type DeliveryID string

func (x DeliveryID) String() string {
	return string(x)
}
