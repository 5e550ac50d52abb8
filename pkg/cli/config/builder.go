package config

import (
	"context"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/infra/docker"
)

// Builder holds image builder configuration
type Builder struct {
	DockerHost    string
	BuildTimeout  string
	MaxConcurrent string
}

// Flags returns CLI flags for builder configuration
func (c *Builder) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "docker-host",
			Usage:       "Docker daemon address (defaults to the environment)",
			Destination: &c.DockerHost,
			Sources:     cli.EnvVars("STEVEDORE_DOCKER_HOST"),
		},
		&cli.StringFlag{
			Name:        "build-timeout",
			Usage:       "Wall clock limit per delivery, e.g. 30m",
			Value:       "30m",
			Destination: &c.BuildTimeout,
			Sources:     cli.EnvVars("STEVEDORE_BUILD_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:        "max-concurrent-builds",
			Usage:       "Number of deliveries built in parallel",
			Value:       "2",
			Destination: &c.MaxConcurrent,
			Sources:     cli.EnvVars("STEVEDORE_MAX_CONCURRENT_BUILDS"),
		},
	}
}

// Timeout parses the configured build timeout
func (c *Builder) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.BuildTimeout)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid build-timeout", goerr.V("value", c.BuildTimeout))
	}
	if d < 0 {
		return 0, goerr.New("build-timeout must not be negative", goerr.V("value", c.BuildTimeout))
	}
	return d, nil
}

// Concurrency parses the configured parallel build cap
func (c *Builder) Concurrency() (int, error) {
	n, err := strconv.Atoi(c.MaxConcurrent)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid max-concurrent-builds", goerr.V("value", c.MaxConcurrent))
	}
	if n < 1 {
		return 0, goerr.New("max-concurrent-builds must be at least 1", goerr.V("value", c.MaxConcurrent))
	}
	return n, nil
}

// NewBuilder connects to the Docker daemon
func (c *Builder) NewBuilder(ctx context.Context) (interfaces.ImageBuilder, error) {
	var opts []docker.Option
	if c.DockerHost != "" {
		opts = append(opts, docker.WithHost(c.DockerHost))
	}
	return docker.New(ctx, opts...)
}
