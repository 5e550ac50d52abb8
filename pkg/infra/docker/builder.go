package docker

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

// config holds internal builder configuration
type config struct {
	host string
}

// Option is a functional option for builder configuration
type Option func(*config)

// WithHost overrides the Docker daemon address (e.g. unix:///var/run/docker.sock
// or tcp://127.0.0.1:2375). The default comes from the environment.
func WithHost(host string) Option {
	return func(c *config) {
		c.host = host
	}
}

type builder struct {
	cli *client.Client
}

// New creates an ImageBuilder backed by the Docker Engine API. The daemon is
// pinged once so a misconfigured daemon address fails at startup instead of
// on the first release.
func New(ctx context.Context, opts ...Option) (interfaces.ImageBuilder, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	clientOpts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if cfg.host != "" {
		clientOpts = append(clientOpts, client.WithHost(cfg.host))
	}

	cli, err := client.NewClientWithOpts(clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create docker client")
	}

	if _, err := cli.Ping(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to ping docker daemon", goerr.V("host", cli.DaemonHost()))
	}

	return &builder{cli: cli}, nil
}

// Build builds an image from the spec's context directory and tags it with
// every reference in the spec.
func (b *builder) Build(ctx context.Context, spec *model.BuildSpec, output io.Writer) (*model.BuildResult, error) {
	buildCtx, err := TarBuildContext(spec.ContextDir)
	if err != nil {
		return nil, err
	}
	defer buildCtx.Close()

	args := make(map[string]*string, len(spec.BuildArgs))
	for k, v := range spec.BuildArgs {
		args[k] = &v
	}

	started := time.Now()

	resp, err := b.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:        spec.Tags,
		Dockerfile:  spec.Dockerfile,
		BuildArgs:   args,
		Labels:      spec.Labels,
		Platform:    spec.Platform,
		NoCache:     spec.NoCache,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to start image build", goerr.V("context", spec.ContextDir))
	}
	defer resp.Body.Close()

	result := &model.BuildResult{}
	aux := func(msg jsonmessage.JSONMessage) {
		if msg.Aux == nil {
			return
		}
		var br types.BuildResult
		if err := json.Unmarshal(*msg.Aux, &br); err == nil && br.ID != "" {
			result.ImageID = br.ID
		}
	}

	// The build output is a JSON message stream; daemon-side failures
	// surface as a JSONError from the stream decoder.
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, output, 0, false, aux); err != nil {
		return nil, goerr.Wrap(err, "image build failed", goerr.V("tags", spec.Tags))
	}

	result.Duration = time.Since(started)
	return result, nil
}

// Push pushes a single tagged reference using the given credential.
func (b *builder) Push(ctx context.Context, ref string, cred *model.RegistryCredential, output io.Writer) (*model.PushResult, error) {
	// The engine expects an X-Registry-Auth header even for anonymous
	// pushes, so encode an empty auth config when no credential is given.
	authConfig := registry.AuthConfig{}
	if cred != nil {
		authConfig = registry.AuthConfig{
			Username:      cred.Username,
			Password:      cred.Password,
			ServerAddress: cred.Host,
		}
	}

	encodedAuth, err := registry.EncodeAuthConfig(authConfig)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode registry auth")
	}

	resp, err := b.cli.ImagePush(ctx, ref, image.PushOptions{RegistryAuth: encodedAuth})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to start image push", goerr.V("ref", ref))
	}
	defer resp.Close()

	result := &model.PushResult{Ref: ref}
	aux := func(msg jsonmessage.JSONMessage) {
		if msg.Aux == nil {
			return
		}
		var pr types.PushResult
		if err := json.Unmarshal(*msg.Aux, &pr); err == nil && pr.Digest != "" {
			result.Digest = pr.Digest
		}
	}

	if err := jsonmessage.DisplayJSONMessagesStream(resp, output, 0, false, aux); err != nil {
		return nil, goerr.Wrap(err, "image push failed", goerr.V("ref", ref))
	}

	return result, nil
}

// Close releases the underlying docker client connection.
func (b *builder) Close() error {
	return b.cli.Close()
}
