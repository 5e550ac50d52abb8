package config

import (
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

// Registry holds a fallback registry credential used when the policy does
// not declare one for the target registry.
type Registry struct {
	Host     string
	Username string
	Password string
}

// Flags returns CLI flags for registry configuration
func (c *Registry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "registry-host",
			Usage:       "Registry host the fallback credential applies to",
			Destination: &c.Host,
			Sources:     cli.EnvVars("STEVEDORE_REGISTRY_HOST"),
		},
		&cli.StringFlag{
			Name:        "registry-username",
			Usage:       "Fallback registry username",
			Destination: &c.Username,
			Sources:     cli.EnvVars("STEVEDORE_REGISTRY_USERNAME"),
		},
		&cli.StringFlag{
			Name:        "registry-password",
			Usage:       "Fallback registry password or token",
			Destination: &c.Password,
			Sources:     cli.EnvVars("STEVEDORE_REGISTRY_PASSWORD"),
		},
	}
}

// Credential returns the fallback credential, or nil when no username is
// configured.
func (c *Registry) Credential() *model.RegistryCredential {
	if c.Username == "" {
		return nil
	}
	return &model.RegistryCredential{
		Host:     c.Host,
		Username: c.Username,
		Password: c.Password,
	}
}
