package usecase

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/utils/metrics"
)

type shipUseCase struct {
	githubClient interfaces.GitHubClient
	builder      interfaces.ImageBuilder
	store        interfaces.DeliveryStore
	checkout     interfaces.CheckoutUseCase
	logStore     interfaces.BuildLogStore
	policy       *model.Policy
	notifier     interfaces.Notifier
	fallbackCred *model.RegistryCredential
	sem          chan struct{}
	buildTimeout time.Duration
	reportStatus bool
	dryRun       bool
}

// ShipOption is a functional option for the ship pipeline
type ShipOption func(*shipUseCase)

// WithPolicy sets the shipping policy. Without a policy every delivery is
// skipped.
func WithPolicy(policy *model.Policy) ShipOption {
	return func(uc *shipUseCase) {
		uc.policy = policy
	}
}

// WithNotifier sets the notifier called with finished deliveries.
func WithNotifier(notifier interfaces.Notifier) ShipOption {
	return func(uc *shipUseCase) {
		uc.notifier = notifier
	}
}

// WithLogStore sets the store that keeps build and push output.
func WithLogStore(logStore interfaces.BuildLogStore) ShipOption {
	return func(uc *shipUseCase) {
		uc.logStore = logStore
	}
}

// WithCommitStatus enables commit status reporting on the release commit.
func WithCommitStatus() ShipOption {
	return func(uc *shipUseCase) {
		uc.reportStatus = true
	}
}

// WithRegistryCredential sets the fallback push credential used when the
// policy has no registries entry for the image host.
func WithRegistryCredential(cred *model.RegistryCredential) ShipOption {
	return func(uc *shipUseCase) {
		uc.fallbackCred = cred
	}
}

// WithConcurrency caps the number of pipelines running at once.
func WithConcurrency(n int) ShipOption {
	return func(uc *shipUseCase) {
		if n > 0 {
			uc.sem = make(chan struct{}, n)
		}
	}
}

// WithBuildTimeout bounds the wall clock time of one pipeline run, covering
// checkout, build and push.
func WithBuildTimeout(d time.Duration) ShipOption {
	return func(uc *shipUseCase) {
		uc.buildTimeout = d
	}
}

// WithDryRun builds the image but skips push, notification and commit status.
func WithDryRun() ShipOption {
	return func(uc *shipUseCase) {
		uc.dryRun = true
	}
}

// WithCheckout replaces the source checkout implementation.
func WithCheckout(checkout interfaces.CheckoutUseCase) ShipOption {
	return func(uc *shipUseCase) {
		uc.checkout = checkout
	}
}

// NewShip creates the pipeline that turns a claimed delivery into pushed
// image tags.
func NewShip(githubClient interfaces.GitHubClient, builder interfaces.ImageBuilder, store interfaces.DeliveryStore, opts ...ShipOption) interfaces.ShipUseCase {
	uc := &shipUseCase{
		githubClient: githubClient,
		builder:      builder,
		store:        store,
		checkout:     NewCheckout(githubClient),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// ShipRelease runs the pipeline for one delivery: match the policy, check out
// the release source, build the image, push every tag, then record and report
// the outcome. The delivery passed in is updated in place and persisted.
func (uc *shipUseCase) ShipRelease(ctx context.Context, delivery *model.Delivery) error {
	logger := ctxlog.From(ctx)

	target := uc.matchTarget(delivery.Repository)
	if target == nil {
		logger.Info("No shipping target for repository, skipping",
			"id", delivery.ID,
			"repository", delivery.Repository,
			"tag", delivery.TagName,
		)
		delivery.Status = model.DeliverySkipped
		delivery.FinishedAt = time.Now()
		if err := uc.store.Update(ctx, delivery); err != nil {
			logger.Error("Failed to record skipped delivery", "error", err, "id", delivery.ID)
		}
		metrics.Deliveries.WithLabelValues(string(model.DeliverySkipped)).Inc()
		return nil
	}

	metrics.DeliveriesInflight.Inc()
	defer metrics.DeliveriesInflight.Dec()

	delivery.Status = model.DeliveryRunning
	delivery.StartedAt = time.Now()
	if err := uc.store.Update(ctx, delivery); err != nil {
		logger.Error("Failed to mark delivery running", "error", err, "id", delivery.ID)
	}

	uc.resolveCommitSHA(ctx, delivery)
	uc.reportCommitStatus(ctx, delivery, "pending", "Shipping release "+delivery.TagName)

	var buildLog bytes.Buffer
	runErr := uc.run(ctx, delivery, target, &buildLog)

	delivery.FinishedAt = time.Now()
	if runErr != nil {
		delivery.Status = model.DeliveryFailed
		delivery.Error = runErr.Error()
		logger.Error("Delivery failed",
			"error", runErr,
			"id", delivery.ID,
			"repository", delivery.Repository,
			"tag", delivery.TagName,
		)
	} else {
		delivery.Status = model.DeliverySucceeded
		logger.Info("Delivery succeeded",
			"id", delivery.ID,
			"repository", delivery.Repository,
			"image", delivery.Image,
			"digest", delivery.Digest,
			"duration", delivery.Duration(),
		)
	}

	uc.saveBuildLog(ctx, delivery, buildLog.Bytes())

	if err := uc.store.Update(ctx, delivery); err != nil {
		logger.Error("Failed to record delivery result", "error", err, "id", delivery.ID)
	}

	metrics.Deliveries.WithLabelValues(string(delivery.Status)).Inc()
	if dur := delivery.Duration(); dur > 0 {
		result := "success"
		if runErr != nil {
			result = "failure"
		}
		metrics.BuildDuration.WithLabelValues(result).Observe(dur.Seconds())
	}

	if runErr != nil {
		uc.reportCommitStatus(ctx, delivery, "failure", "Release shipping failed")
	} else {
		uc.reportCommitStatus(ctx, delivery, "success", "Shipped "+delivery.Image)
	}

	uc.notify(ctx, delivery)

	return runErr
}

// run executes the fallible part of the pipeline, recording progress into the
// delivery as it goes. Build and push output is collected into buildLog even
// when the run fails partway.
func (uc *shipUseCase) run(ctx context.Context, delivery *model.Delivery, target *model.Target, buildLog *bytes.Buffer) error {
	logger := ctxlog.From(ctx)

	if uc.buildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.buildTimeout)
		defer cancel()
	}

	if uc.sem != nil {
		select {
		case uc.sem <- struct{}{}:
			defer func() { <-uc.sem }()
		case <-ctx.Done():
			return fmt.Errorf("waiting for build slot: %w", ctx.Err())
		}
	}

	tags, err := shipTags(delivery, target)
	if err != nil {
		return err
	}

	info, err := releaseInfoFromDelivery(delivery)
	if err != nil {
		return err
	}

	checkout, err := uc.checkout.CheckoutRelease(ctx, info)
	if err != nil {
		return err
	}
	defer func() {
		if removeErr := os.RemoveAll(checkout.TempDir); removeErr != nil {
			logger.Warn("Failed to clean up temporary directory",
				"temp_dir", checkout.TempDir,
				"error", removeErr,
			)
		}
	}()

	spec := &model.BuildSpec{
		ContextDir: checkout.ContextDir,
		Dockerfile: target.Dockerfile,
		Tags:       tags,
		BuildArgs:  target.BuildArgs,
		Labels:     buildLabels(delivery, target),
		Platform:   target.Platform,
		NoCache:    target.NoCache,
	}

	logger.Info("Building image",
		"id", delivery.ID,
		"tags", tags,
		"context_dir", spec.ContextDir,
		"dockerfile", spec.Dockerfile,
	)

	result, err := uc.builder.Build(ctx, spec, buildLog)
	if err != nil {
		return err
	}

	delivery.ImageID = result.ImageID
	delivery.Image = tags[0]
	delivery.Tags = tags

	logger.Info("Built image",
		"id", delivery.ID,
		"image_id", result.ImageID,
		"build_duration", result.Duration,
	)

	if uc.dryRun {
		logger.Info("Dry run, skipping push", "id", delivery.ID, "tags", tags)
		return nil
	}

	cred := uc.credentialFor(target)
	for _, ref := range tags {
		pushed, err := uc.builder.Push(ctx, ref, cred, buildLog)
		if err != nil {
			return err
		}
		if delivery.Digest == "" {
			delivery.Digest = pushed.Digest
		}
		logger.Info("Pushed image", "id", delivery.ID, "ref", ref, "digest", pushed.Digest)
	}

	return nil
}

func (uc *shipUseCase) matchTarget(repository string) *model.Target {
	if uc.policy == nil {
		return nil
	}
	if target, ok := uc.policy.Match(repository); ok {
		return target
	}
	return nil
}

func (uc *shipUseCase) credentialFor(target *model.Target) *model.RegistryCredential {
	if uc.policy != nil {
		if cred, ok := uc.policy.Credential(target.ImageHost()); ok {
			return cred
		}
	}
	return uc.fallbackCred
}

// resolveCommitSHA fills in the release commit when the webhook payload did
// not carry one. Failures are logged and tolerated: the SHA is only used for
// labels and commit statuses.
func (uc *shipUseCase) resolveCommitSHA(ctx context.Context, delivery *model.Delivery) {
	if delivery.CommitSHA != "" {
		return
	}

	owner, repo, ok := strings.Cut(delivery.Repository, "/")
	if !ok {
		return
	}

	sha, err := uc.githubClient.ResolveCommitSHA(ctx, owner, repo, delivery.TagName)
	if err != nil {
		ctxlog.From(ctx).Warn("Failed to resolve commit SHA for release tag",
			"error", err,
			"repository", delivery.Repository,
			"tag", delivery.TagName,
		)
		return
	}
	delivery.CommitSHA = sha
}

func (uc *shipUseCase) reportCommitStatus(ctx context.Context, delivery *model.Delivery, state, description string) {
	if !uc.reportStatus || uc.dryRun || delivery.CommitSHA == "" {
		return
	}

	owner, repo, ok := strings.Cut(delivery.Repository, "/")
	if !ok {
		return
	}

	status := &interfaces.CommitStatus{
		State:       state,
		Description: description,
		TargetURL:   statusTargetURL(delivery),
	}
	if err := uc.githubClient.CreateCommitStatus(ctx, owner, repo, delivery.CommitSHA, status); err != nil {
		ctxlog.From(ctx).Warn("Failed to report commit status",
			"error", err,
			"repository", delivery.Repository,
			"state", state,
		)
	}
}

// statusTargetURL picks a link for the commit status. The GitHub API rejects
// non-HTTP target URLs, so local log paths and gs:// URLs are dropped.
func statusTargetURL(delivery *model.Delivery) string {
	if strings.HasPrefix(delivery.LogURL, "http://") || strings.HasPrefix(delivery.LogURL, "https://") {
		return delivery.LogURL
	}
	return ""
}

func (uc *shipUseCase) saveBuildLog(ctx context.Context, delivery *model.Delivery, log []byte) {
	if uc.logStore == nil || len(log) == 0 {
		return
	}

	url, err := uc.logStore.Save(ctx, delivery.ID.String(), log)
	if err != nil {
		ctxlog.From(ctx).Warn("Failed to save build log", "error", err, "id", delivery.ID)
		return
	}
	delivery.LogURL = url
}

func (uc *shipUseCase) notify(ctx context.Context, delivery *model.Delivery) {
	if uc.notifier == nil || uc.dryRun {
		return
	}
	if delivery.Status != model.DeliverySucceeded && delivery.Status != model.DeliveryFailed {
		return
	}

	if err := uc.notifier.NotifyDelivery(ctx, delivery); err != nil {
		ctxlog.From(ctx).Warn("Failed to send delivery notification", "error", err, "id", delivery.ID)
	}
}

// shipTags derives the full set of image references to build and push. The
// ref-derived tag comes first so it becomes the delivery's primary image.
func shipTags(delivery *model.Delivery, target *model.Target) ([]string, error) {
	var tags []string
	seen := map[string]bool{}

	appendTag := func(tag string) {
		ref := target.Image + ":" + tag
		if !seen[ref] {
			seen[ref] = true
			tags = append(tags, ref)
		}
	}

	if target.TagWithRefEnabled() {
		appendTag(model.TagFromRef(delivery.Ref))
	}
	for _, tag := range target.ExtraTags {
		appendTag(tag)
	}

	if len(tags) == 0 {
		return nil, fmt.Errorf("target %s produces no tags: enable tag_with_ref or configure tags", target.Repository)
	}
	return tags, nil
}

func releaseInfoFromDelivery(delivery *model.Delivery) (*model.ReleaseInfo, error) {
	owner, repo, ok := strings.Cut(delivery.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository name: %s", delivery.Repository)
	}

	return &model.ReleaseInfo{
		Owner:      owner,
		Repo:       repo,
		ReleaseID:  delivery.ReleaseID,
		TagName:    delivery.TagName,
		Ref:        delivery.Ref,
		ReleaseURL: delivery.ReleaseURL,
		CommitSHA:  delivery.CommitSHA,
		Sender:     delivery.Sender,
	}, nil
}

// buildLabels stamps standard OCI source labels onto the image, then lets the
// target's own labels override them.
func buildLabels(delivery *model.Delivery, target *model.Target) map[string]string {
	labels := map[string]string{
		"org.opencontainers.image.source":  "https://github.com/" + delivery.Repository,
		"org.opencontainers.image.version": delivery.TagName,
	}
	if delivery.CommitSHA != "" {
		labels["org.opencontainers.image.revision"] = delivery.CommitSHA
	}
	for k, v := range target.Labels {
		labels[k] = v
	}
	return labels
}
