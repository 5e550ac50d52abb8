package model

import "time"

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypeRelease WebhookEventType = "release"
	EventTypePing    WebhookEventType = "ping"
	EventTypeUnknown WebhookEventType = "unknown"
)

// ActionPublished is the release action that triggers a shipping job.
// GitHub sends "published" when a release or prerelease goes public,
// including drafts promoted to a published release.
const ActionPublished = "published"

// WebhookEvent represents a webhook event received from GitHub
type WebhookEvent struct {
	ID         string           // Retrieved from X-GitHub-Delivery header
	Type       WebhookEventType // Retrieved from X-GitHub-Event header
	Action     string           // Event action (e.g. published, created)
	Repository string           // Repository full name (owner/name)
	Sender     string           // Sender username
	ReceivedAt time.Time        // Time when the event was received
	RawPayload []byte           // Raw JSON payload
}

// IsSupportedEvent checks if the event triggers a shipping job.
// Only release events with the "published" action are shipped; everything
// else is acknowledged and dropped.
func (e *WebhookEvent) IsSupportedEvent() bool {
	return e.Type == EventTypeRelease && e.Action == ActionPublished
}
