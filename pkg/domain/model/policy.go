package model

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/creasty/defaults"
	"github.com/distribution/reference"
	"github.com/go-playground/validator/v10"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
)

// validate is a shared validator instance for policy structs.
var validate = validator.New()

// Policy is the shipping policy: which repositories get shipped, where their
// images go, and how registries are authenticated. It is loaded from a TOML
// file.
type Policy struct {
	Defaults   TargetDefaults  `toml:"defaults"`
	Registries []RegistryEntry `toml:"registries" validate:"dive"`
	Targets    []Target        `toml:"targets" validate:"required,min=1,dive"`
}

// TargetDefaults holds values applied to targets that do not set them.
type TargetDefaults struct {
	Dockerfile string `toml:"dockerfile" default:"Dockerfile"`
	TagWithRef *bool  `toml:"tag_with_ref" default:"true"`
}

// RegistryEntry configures authentication for one registry host. The
// password is never stored in the policy file; PasswordEnv names the
// environment variable holding it.
type RegistryEntry struct {
	Host        string `toml:"host" validate:"required"`
	Username    string `toml:"username" validate:"required"`
	PasswordEnv string `toml:"password_env" validate:"required"`
}

// Target maps a repository to an image destination and build parameters.
// Repository is either an exact "owner/name" or an "owner/*" wildcard.
type Target struct {
	Repository string            `toml:"repository" validate:"required"`
	Image      string            `toml:"image" validate:"required"`
	Dockerfile string            `toml:"dockerfile"`
	TagWithRef *bool             `toml:"tag_with_ref"`
	ExtraTags  []string          `toml:"tags"`
	Platform   string            `toml:"platform"`
	BuildArgs  map[string]string `toml:"build_args"`
	Labels     map[string]string `toml:"labels"`
	NoCache    bool              `toml:"no_cache"`
}

// LoadPolicy reads and parses a policy file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", path))
	}

	policy, err := ParsePolicy(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse policy file", goerr.V("path", path))
	}

	return policy, nil
}

// ParsePolicy unmarshals TOML policy data, applies defaults and validates it.
func ParsePolicy(data []byte) (*Policy, error) {
	var policy Policy
	if err := toml.Unmarshal(data, &policy); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal policy")
	}

	if err := defaults.Set(&policy); err != nil {
		return nil, goerr.Wrap(err, "failed to apply policy defaults")
	}

	policy.fillTargetDefaults()

	if err := validate.Struct(&policy); err != nil {
		return nil, goerr.Wrap(err, "invalid policy")
	}

	for i := range policy.Targets {
		if err := policy.Targets[i].check(); err != nil {
			return nil, err
		}
	}

	return &policy, nil
}

// fillTargetDefaults copies unset target fields from the defaults section.
func (p *Policy) fillTargetDefaults() {
	for i := range p.Targets {
		t := &p.Targets[i]
		if t.Dockerfile == "" {
			t.Dockerfile = p.Defaults.Dockerfile
		}
		if t.TagWithRef == nil {
			t.TagWithRef = p.Defaults.TagWithRef
		}
	}
}

func (t *Target) check() error {
	parts := strings.Split(t.Repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return goerr.New("target repository must be owner/name or owner/*",
			goerr.V("repository", t.Repository))
	}

	named, err := reference.ParseNormalizedNamed(t.Image)
	if err != nil {
		return goerr.Wrap(err, "invalid target image reference",
			goerr.V("image", t.Image))
	}
	if _, isTagged := named.(reference.Tagged); isTagged {
		return goerr.New("target image must not carry a tag, tags are derived per release",
			goerr.V("image", t.Image))
	}

	for _, tag := range t.ExtraTags {
		if _, err := reference.WithTag(named, tag); err != nil {
			return goerr.Wrap(err, "invalid extra tag", goerr.V("tag", tag))
		}
	}

	return nil
}

// Match returns the target covering the given owner/name repository.
// Exact matches win over owner/* wildcards; within each class the first
// declaration wins.
func (p *Policy) Match(fullName string) (*Target, bool) {
	for i := range p.Targets {
		if p.Targets[i].Repository == fullName {
			return &p.Targets[i], true
		}
	}

	owner, _, ok := strings.Cut(fullName, "/")
	if !ok {
		return nil, false
	}
	for i := range p.Targets {
		if p.Targets[i].Repository == owner+"/*" {
			return &p.Targets[i], true
		}
	}

	return nil, false
}

// Credential resolves the push credential for a registry host from the
// policy's registries section. The password is read from the configured
// environment variable at call time.
func (p *Policy) Credential(host string) (*RegistryCredential, bool) {
	for _, r := range p.Registries {
		if r.Host != host {
			continue
		}
		return &RegistryCredential{
			Host:     r.Host,
			Username: r.Username,
			Password: os.Getenv(r.PasswordEnv),
		}, true
	}
	return nil, false
}

// TagWithRefEnabled reports whether the target derives a tag from the
// release ref.
func (t *Target) TagWithRefEnabled() bool {
	return t.TagWithRef == nil || *t.TagWithRef
}

// ImageHost returns the registry host of the target image. The image
// reference is validated at load time, so parse failures return an empty
// host here.
func (t *Target) ImageHost() string {
	named, err := reference.ParseNormalizedNamed(t.Image)
	if err != nil {
		return ""
	}
	return reference.Domain(named)
}
