package config

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/infra/logstore"
)

// BuildLog holds build log storage configuration
type BuildLog struct {
	Dir    string
	Bucket string
	Prefix string
}

// Flags returns CLI flags for build log configuration
func (c *BuildLog) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "build-log-dir",
			Usage:       "Directory for build logs (disabled when empty)",
			Destination: &c.Dir,
			Sources:     cli.EnvVars("STEVEDORE_BUILD_LOG_DIR"),
		},
		&cli.StringFlag{
			Name:        "build-log-bucket",
			Usage:       "Cloud Storage bucket for build logs (takes priority over build-log-dir)",
			Destination: &c.Bucket,
			Sources:     cli.EnvVars("STEVEDORE_BUILD_LOG_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "build-log-prefix",
			Usage:       "Object prefix inside the build log bucket",
			Value:       "build-logs",
			Destination: &c.Prefix,
			Sources:     cli.EnvVars("STEVEDORE_BUILD_LOG_PREFIX"),
		},
	}
}

// NewStore creates the build log store, or returns nil when log storage is
// not configured.
func (c *BuildLog) NewStore(ctx context.Context) (interfaces.BuildLogStore, error) {
	if c.Bucket != "" {
		return logstore.NewGCS(ctx, c.Bucket, c.Prefix)
	}
	if c.Dir != "" {
		return logstore.NewLocal(c.Dir)
	}
	return nil, nil
}
