package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

// Policy holds shipping policy configuration
type Policy struct {
	Path string
}

// Flags returns CLI flags for policy configuration
func (c *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy",
			Usage:       "Path to the shipping policy TOML file",
			Required:    true,
			Destination: &c.Path,
			Sources:     cli.EnvVars("STEVEDORE_POLICY"),
		},
	}
}

// Load reads and validates the policy file
func (c *Policy) Load() (*model.Policy, error) {
	return model.LoadPolicy(c.Path)
}
