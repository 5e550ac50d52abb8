package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

// ImageBuilder builds container images from a checkout and pushes them to a
// registry. The build and push output is streamed into the given writer so
// it can be captured as the delivery log.
type ImageBuilder interface {
	// Build builds an image from the spec's context directory and tags it
	// with every reference in the spec.
	Build(ctx context.Context, spec *model.BuildSpec, output io.Writer) (*model.BuildResult, error)

	// Push pushes a single tagged reference using the given credential.
	// A nil credential pushes unauthenticated.
	Push(ctx context.Context, ref string, cred *model.RegistryCredential, output io.Writer) (*model.PushResult, error)

	// Close releases the underlying builder connection.
	Close() error
}
