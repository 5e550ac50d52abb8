package model

import (
	"time"

	"github.com/m-mizutani/stevedore/pkg/domain/types"
)

// DeliveryStatus represents the lifecycle state of a shipping job.
type DeliveryStatus string

const (
	DeliveryQueued    DeliveryStatus = "queued"
	DeliveryRunning   DeliveryStatus = "running"
	DeliverySucceeded DeliveryStatus = "succeeded"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliverySkipped   DeliveryStatus = "skipped"
)

// IsTerminal reports whether the status is a final state.
func (s DeliveryStatus) IsTerminal() bool {
	switch s {
	case DeliverySucceeded, DeliveryFailed, DeliverySkipped:
		return true
	}
	return false
}

// Delivery records one shipping job: a published release and the image
// build-and-push it triggered. It is created when the webhook is claimed
// and updated as the pipeline progresses.
type Delivery struct {
	ID         types.DeliveryID `firestore:"id"          json:"id"`
	Repository string           `firestore:"repository"  json:"repository"` // owner/name
	ReleaseID  int64            `firestore:"release_id"  json:"release_id"`
	TagName    string           `firestore:"tag_name"    json:"tag_name"`
	Ref        string           `firestore:"ref"         json:"ref"`
	ReleaseURL string           `firestore:"release_url" json:"release_url,omitempty"`
	CommitSHA  string           `firestore:"commit_sha"  json:"commit_sha,omitempty"`
	Sender     string           `firestore:"sender"      json:"sender,omitempty"`

	Status DeliveryStatus `firestore:"status" json:"status"`
	Error  string         `firestore:"error"  json:"error,omitempty"`

	Image   string   `firestore:"image"   json:"image,omitempty"`   // primary pushed reference
	Digest  string   `firestore:"digest"  json:"digest,omitempty"`  // digest of the primary reference
	Tags    []string `firestore:"tags"    json:"tags,omitempty"`    // all pushed references
	ImageID string   `firestore:"image_id" json:"image_id,omitempty"`
	LogURL  string   `firestore:"log_url" json:"log_url,omitempty"`

	ReceivedAt time.Time `firestore:"received_at" json:"received_at"`
	StartedAt  time.Time `firestore:"started_at"  json:"started_at,omitzero"`
	FinishedAt time.Time `firestore:"finished_at" json:"finished_at,omitzero"`
}

// NewDelivery creates a queued delivery for a release.
func NewDelivery(id types.DeliveryID, info *ReleaseInfo, receivedAt time.Time) *Delivery {
	return &Delivery{
		ID:         id,
		Repository: info.FullName(),
		ReleaseID:  info.ReleaseID,
		TagName:    info.TagName,
		Ref:        info.Ref,
		ReleaseURL: info.ReleaseURL,
		CommitSHA:  info.CommitSHA,
		Sender:     info.Sender,
		Status:     DeliveryQueued,
		ReceivedAt: receivedAt,
	}
}

// Duration returns the wall clock time of the pipeline run, or zero if the
// delivery has not finished.
func (d *Delivery) Duration() time.Duration {
	if d.StartedAt.IsZero() || d.FinishedAt.IsZero() {
		return 0
	}
	return d.FinishedAt.Sub(d.StartedAt)
}
