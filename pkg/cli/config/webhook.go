package config

import "github.com/urfave/cli/v3"

// Webhook holds webhook endpoint configuration
type Webhook struct {
	Secret string
}

// Flags returns CLI flags for webhook configuration
func (c *Webhook) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret",
			Required:    true,
			Destination: &c.Secret,
			Sources:     cli.EnvVars("STEVEDORE_GITHUB_WEBHOOK_SECRET"),
		},
	}
}
