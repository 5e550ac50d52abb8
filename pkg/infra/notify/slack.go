package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

// Slack posts delivery results to a Slack incoming webhook.
type Slack struct {
	webhookURL string
	channel    string
}

// SlackOption is a functional option for Slack notifier configuration
type SlackOption func(*Slack)

// WithChannel overrides the webhook's default channel.
func WithChannel(channel string) SlackOption {
	return func(s *Slack) {
		s.channel = channel
	}
}

// NewSlack creates a notifier that posts to the given incoming webhook URL.
func NewSlack(webhookURL string, opts ...SlackOption) *Slack {
	s := &Slack{webhookURL: webhookURL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NotifyDelivery posts a summary of a finished delivery.
func (s *Slack) NotifyDelivery(ctx context.Context, d *model.Delivery) error {
	msg := &slack.WebhookMessage{
		Channel:     s.channel,
		Attachments: []slack.Attachment{buildAttachment(d)},
	}

	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post slack notification", goerr.V("delivery", d.ID))
	}
	return nil
}

func buildAttachment(d *model.Delivery) slack.Attachment {
	var color, title string
	switch d.Status {
	case model.DeliverySucceeded:
		color = "good"
		title = fmt.Sprintf("📦 Shipped %s %s", d.Repository, d.TagName)
	case model.DeliveryFailed:
		color = "danger"
		title = fmt.Sprintf("🚨 Failed to ship %s %s", d.Repository, d.TagName)
	case model.DeliverySkipped:
		color = "warning"
		title = fmt.Sprintf("Skipped %s %s", d.Repository, d.TagName)
	default:
		color = "#439fe0"
		title = fmt.Sprintf("%s %s: %s", d.Repository, d.TagName, d.Status)
	}

	fields := []slack.AttachmentField{
		{Title: "Repository", Value: d.Repository, Short: true},
		{Title: "Tag", Value: d.TagName, Short: true},
	}
	if d.Image != "" {
		fields = append(fields, slack.AttachmentField{Title: "Image", Value: d.Image})
	}
	if d.Digest != "" {
		fields = append(fields, slack.AttachmentField{Title: "Digest", Value: d.Digest})
	}
	if dur := d.Duration(); dur > 0 {
		fields = append(fields, slack.AttachmentField{Title: "Duration", Value: dur.Round(time.Second).String(), Short: true})
	}
	if d.Sender != "" {
		fields = append(fields, slack.AttachmentField{Title: "Published by", Value: d.Sender, Short: true})
	}
	if d.Error != "" {
		fields = append(fields, slack.AttachmentField{Title: "Error", Value: d.Error})
	}
	if d.LogURL != "" {
		fields = append(fields, slack.AttachmentField{Title: "Build log", Value: d.LogURL})
	}

	return slack.Attachment{
		Color:     color,
		Title:     title,
		TitleLink: d.ReleaseURL,
		Fields:    fields,
	}
}
