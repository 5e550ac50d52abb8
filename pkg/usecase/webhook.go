package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/domain/types"
	"github.com/m-mizutani/stevedore/pkg/utils/async"
)

type webhookUseCase struct {
	ship  interfaces.ShipUseCase
	store interfaces.DeliveryStore
}

// NewWebhook creates a new instance of WebhookUseCase
func NewWebhook(ship interfaces.ShipUseCase, store interfaces.DeliveryStore) *webhookUseCase {
	return &webhookUseCase{
		ship:  ship,
		store: store,
	}
}

// ProcessEvent handles one webhook event. For a published release it claims
// the delivery ID and hands the shipping pipeline to a background worker so
// the webhook can respond before GitHub's delivery timeout. Every other
// event is logged and dropped.
func (uc *webhookUseCase) ProcessEvent(ctx context.Context, event *model.WebhookEvent) error {
	logger := ctxlog.From(ctx)

	logger.Info("Processing webhook event",
		"id", event.ID,
		"type", event.Type,
		"action", event.Action,
		"repository", event.Repository,
		"sender", event.Sender,
		"supported", event.IsSupportedEvent(),
	)

	if !event.IsSupportedEvent() {
		logger.Debug("Ignoring unsupported event",
			"type", event.Type,
			"action", event.Action,
		)
		return nil
	}

	var releaseEvent github.ReleaseEvent
	if err := json.Unmarshal(event.RawPayload, &releaseEvent); err != nil {
		return fmt.Errorf("failed to decode release event payload: %w", err)
	}

	info, err := extractReleaseInfo(&releaseEvent)
	if err != nil {
		return err
	}

	// The GitHub delivery GUID doubles as the claim key: a redelivered
	// webhook carries the same GUID and loses the insert race below.
	id := event.ID
	if id == "" {
		id = uuid.NewString()
	}

	receivedAt := event.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	delivery := model.NewDelivery(types.DeliveryID(id), info, receivedAt)

	if err := uc.store.Insert(ctx, delivery); err != nil {
		if errors.Is(err, types.ErrDeliveryExists) {
			logger.Info("Delivery already claimed, skipping duplicate",
				"id", delivery.ID,
				"repository", delivery.Repository,
				"tag", delivery.TagName,
			)
			return nil
		}
		return err
	}

	logger.Info("Claimed delivery",
		"id", delivery.ID,
		"repository", delivery.Repository,
		"tag", delivery.TagName,
		"release_id", delivery.ReleaseID,
	)

	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.ship.ShipRelease(ctx, delivery)
	})

	return nil
}

var commitSHAPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// extractReleaseInfo extracts release information from a GitHub release event
func extractReleaseInfo(event *github.ReleaseEvent) (*model.ReleaseInfo, error) {
	if event.GetRepo() == nil {
		return nil, fmt.Errorf("missing repository information in release event")
	}

	if event.GetRelease() == nil {
		return nil, fmt.Errorf("missing release information in release event")
	}

	owner := event.GetRepo().GetOwner().GetLogin()
	repo := event.GetRepo().GetName()
	tagName := event.GetRelease().GetTagName()

	if owner == "" || repo == "" || tagName == "" {
		return nil, fmt.Errorf("missing required fields: owner=%s, repo=%s, tag=%s", owner, repo, tagName)
	}

	info := &model.ReleaseInfo{
		Owner:       owner,
		Repo:        repo,
		ReleaseID:   event.GetRelease().GetID(),
		TagName:     tagName,
		Ref:         "refs/tags/" + tagName,
		ReleaseName: event.GetRelease().GetName(),
		ReleaseURL:  event.GetRelease().GetHTMLURL(),
		Sender:      event.GetSender().GetLogin(),
		Prerelease:  event.GetRelease().GetPrerelease(),
	}

	// target_commitish is only a commit when it is one: repositories often
	// publish releases against a branch name instead.
	if commitish := event.GetRelease().GetTargetCommitish(); commitSHAPattern.MatchString(commitish) {
		info.CommitSHA = commitish
	}

	return info, nil
}
