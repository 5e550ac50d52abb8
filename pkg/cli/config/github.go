package config

import (
	"os"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	githubinfra "github.com/m-mizutani/stevedore/pkg/infra/github"
)

// GitHub holds GitHub API authentication configuration. Either a personal
// access token or the GitHub App triple (app ID, installation ID, private
// key) must be provided.
type GitHub struct {
	Token          string
	AppID          string
	InstallationID string
	PrivateKeyFile string
}

// Flags returns CLI flags for GitHub API configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub access token (repo scope)",
			Destination: &c.Token,
			Sources:     cli.EnvVars("STEVEDORE_GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("STEVEDORE_GITHUB_APP_ID"),
		},
		&cli.StringFlag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("STEVEDORE_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key-file",
			Usage:       "Path to the GitHub App private key PEM file",
			Destination: &c.PrivateKeyFile,
			Sources:     cli.EnvVars("STEVEDORE_GITHUB_PRIVATE_KEY_FILE"),
		},
	}
}

// NewClient builds a GitHub client from the configured credentials. A token
// wins over App credentials when both are set.
func (c *GitHub) NewClient() (interfaces.GitHubClient, error) {
	if c.Token != "" {
		return githubinfra.NewTokenClient(c.Token), nil
	}

	if c.AppID == "" && c.InstallationID == "" && c.PrivateKeyFile == "" {
		return nil, goerr.New("github authentication not configured: set --github-token or the GitHub App flags")
	}

	appID, err := strconv.ParseInt(c.AppID, 10, 64)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid github-app-id", goerr.V("value", c.AppID))
	}

	installationID, err := strconv.ParseInt(c.InstallationID, 10, 64)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid github-installation-id", goerr.V("value", c.InstallationID))
	}

	privateKey, err := os.ReadFile(c.PrivateKeyFile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read github private key file", goerr.V("path", c.PrivateKeyFile))
	}

	return githubinfra.NewAppClient(appID, installationID, privateKey)
}
