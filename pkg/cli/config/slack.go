package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/infra/notify"
)

// Slack holds Slack notification configuration
type Slack struct {
	WebhookURL string
	Channel    string
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL (notifications disabled when empty)",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("STEVEDORE_SLACK_WEBHOOK_URL"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel override for notifications",
			Destination: &c.Channel,
			Sources:     cli.EnvVars("STEVEDORE_SLACK_CHANNEL"),
		},
	}
}

// Notifier returns a Slack notifier, or nil when no webhook URL is set.
func (c *Slack) Notifier() interfaces.Notifier {
	if c.WebhookURL == "" {
		return nil
	}

	var opts []notify.SlackOption
	if c.Channel != "" {
		opts = append(opts, notify.WithChannel(c.Channel))
	}
	return notify.NewSlack(c.WebhookURL, opts...)
}
