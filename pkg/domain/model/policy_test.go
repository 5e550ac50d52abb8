package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"go.openly.dev/pointy"

	"github.com/m-mizutani/stevedore/pkg/domain/model"
)

func TestParsePolicy(t *testing.T) {
	data := []byte(`
[defaults]
dockerfile = "Dockerfile"
tag_with_ref = true

[[registries]]
host = "docker.pkg.github.com"
username = "alex-dukhno"
password_env = "REGISTRY_TOKEN"

[[targets]]
repository = "alex-dukhno/database"
image = "docker.pkg.github.com/alex-dukhno/database/database"

[targets.build_args]
RUSTFLAGS = "-Dwarnings"
RUST_BACKTRACE = "1"

[[targets]]
repository = "alex-dukhno/*"
image = "docker.pkg.github.com/alex-dukhno/misc"
dockerfile = "docker/Dockerfile"
tags = ["latest"]
platform = "linux/amd64"
`)

	policy, err := model.ParsePolicy(data)
	gt.NoError(t, err)
	gt.Number(t, len(policy.Targets)).Equal(2)
	gt.Number(t, len(policy.Registries)).Equal(1)

	first := policy.Targets[0]
	gt.Value(t, first.Repository).Equal("alex-dukhno/database")
	gt.Value(t, first.Image).Equal("docker.pkg.github.com/alex-dukhno/database/database")
	gt.Value(t, first.Dockerfile).Equal("Dockerfile")
	gt.Value(t, first.TagWithRefEnabled()).Equal(true)
	gt.Value(t, first.BuildArgs["RUSTFLAGS"]).Equal("-Dwarnings")
	gt.Value(t, first.BuildArgs["RUST_BACKTRACE"]).Equal("1")
	gt.Value(t, first.ImageHost()).Equal("docker.pkg.github.com")

	second := policy.Targets[1]
	gt.Value(t, second.Dockerfile).Equal("docker/Dockerfile")
	gt.Value(t, second.ExtraTags).Equal([]string{"latest"})
	gt.Value(t, second.Platform).Equal("linux/amd64")
}

func TestParsePolicyDefaults(t *testing.T) {
	data := []byte(`
[[targets]]
repository = "alex-dukhno/database"
image = "docker.pkg.github.com/alex-dukhno/database/database"
`)

	policy, err := model.ParsePolicy(data)
	gt.NoError(t, err)

	target := policy.Targets[0]
	gt.Value(t, target.Dockerfile).Equal("Dockerfile")
	gt.Value(t, target.TagWithRefEnabled()).Equal(true)
	gt.Value(t, target.NoCache).Equal(false)
}

func TestParsePolicyErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "No targets",
			data: `[defaults]
dockerfile = "Dockerfile"`,
		},
		{
			name: "Missing image",
			data: `[[targets]]
repository = "alex-dukhno/database"`,
		},
		{
			name: "Tagged image rejected",
			data: `[[targets]]
repository = "alex-dukhno/database"
image = "docker.pkg.github.com/alex-dukhno/database/database:v1"`,
		},
		{
			name: "Invalid repository form",
			data: `[[targets]]
repository = "database"
image = "docker.pkg.github.com/alex-dukhno/database/database"`,
		},
		{
			name: "Invalid extra tag",
			data: `[[targets]]
repository = "alex-dukhno/database"
image = "docker.pkg.github.com/alex-dukhno/database/database"
tags = ["no spaces allowed"]`,
		},
		{
			name: "Registry without password_env",
			data: `[[registries]]
host = "docker.pkg.github.com"
username = "alex-dukhno"

[[targets]]
repository = "alex-dukhno/database"
image = "docker.pkg.github.com/alex-dukhno/database/database"`,
		},
		{
			name: "Broken TOML",
			data: `[[targets]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.ParsePolicy([]byte(tt.data))
			gt.Error(t, err)
		})
	}
}

func TestPolicyMatch(t *testing.T) {
	policy, err := model.ParsePolicy([]byte(`
[[targets]]
repository = "alex-dukhno/*"
image = "docker.pkg.github.com/alex-dukhno/misc"

[[targets]]
repository = "alex-dukhno/database"
image = "docker.pkg.github.com/alex-dukhno/database/database"
`))
	gt.NoError(t, err)

	// Exact match wins even when a wildcard is declared first
	target, ok := policy.Match("alex-dukhno/database")
	gt.Value(t, ok).Equal(true)
	gt.Value(t, target.Image).Equal("docker.pkg.github.com/alex-dukhno/database/database")

	// Wildcard covers the rest of the owner
	target, ok = policy.Match("alex-dukhno/other")
	gt.Value(t, ok).Equal(true)
	gt.Value(t, target.Image).Equal("docker.pkg.github.com/alex-dukhno/misc")

	_, ok = policy.Match("someone-else/database")
	gt.Value(t, ok).Equal(false)
}

func TestPolicyCredential(t *testing.T) {
	t.Setenv("TEST_REGISTRY_TOKEN", "ghp_credential_value")

	policy, err := model.ParsePolicy([]byte(`
[[registries]]
host = "docker.pkg.github.com"
username = "alex-dukhno"
password_env = "TEST_REGISTRY_TOKEN"

[[targets]]
repository = "alex-dukhno/database"
image = "docker.pkg.github.com/alex-dukhno/database/database"
`))
	gt.NoError(t, err)

	cred, ok := policy.Credential("docker.pkg.github.com")
	gt.Value(t, ok).Equal(true)
	gt.Value(t, cred.Username).Equal("alex-dukhno")
	gt.Value(t, cred.Password).Equal("ghp_credential_value")

	_, ok = policy.Credential("ghcr.io")
	gt.Value(t, ok).Equal(false)
}

func TestTargetTagWithRef(t *testing.T) {
	enabled := model.Target{TagWithRef: pointy.Bool(true)}
	gt.Value(t, enabled.TagWithRefEnabled()).Equal(true)

	disabled := model.Target{TagWithRef: pointy.Bool(false)}
	gt.Value(t, disabled.TagWithRefEnabled()).Equal(false)

	unset := model.Target{}
	gt.Value(t, unset.TagWithRefEnabled()).Equal(true)
}

func TestTargetImageHost(t *testing.T) {
	tests := []struct {
		name     string
		image    string
		expected string
	}{
		{
			name:     "GitHub Packages",
			image:    "docker.pkg.github.com/alex-dukhno/database/database",
			expected: "docker.pkg.github.com",
		},
		{
			name:     "GHCR",
			image:    "ghcr.io/alex-dukhno/database",
			expected: "ghcr.io",
		},
		{
			name:     "Docker Hub shorthand",
			image:    "alexdukhno/database",
			expected: "docker.io",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := model.Target{Image: tt.image}
			if got := target.ImageHost(); got != tt.expected {
				t.Errorf("ImageHost() = %q, want %q", got, tt.expected)
			}
		})
	}
}
