package model

import "time"

// BuildSpec describes a single image build derived from a policy target and
// a release.
type BuildSpec struct {
	ContextDir string            // Build context directory
	Dockerfile string            // Dockerfile path relative to the context
	Tags       []string          // Fully qualified image references to tag
	BuildArgs  map[string]string // Build arguments passed to the builder
	Labels     map[string]string // Image labels
	Platform   string            // Target platform (e.g. linux/amd64), empty for daemon default
	NoCache    bool              // Disable build cache
}

// BuildResult represents the outcome of an image build.
type BuildResult struct {
	ImageID  string        // Image ID reported by the builder
	Duration time.Duration // Wall clock build time
}

// PushResult represents the outcome of pushing a single image reference.
type PushResult struct {
	Ref    string // Pushed image reference (with tag)
	Digest string // Content digest reported by the registry
}

// RegistryCredential is the credential pair used to authenticate an image push.
type RegistryCredential struct {
	Host     string // Registry host the credential applies to
	Username string
	Password string
}
