package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/stevedore/pkg/cli/config"
)

func cmdValidate() *cli.Command {
	var policyCfg config.Policy

	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a shipping policy file",
		Flags: policyCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			policy, err := policyCfg.Load()
			if err != nil {
				color.New(color.FgRed, color.Bold).Printf("✘ Invalid policy: %s\n", policyCfg.Path)
				return err
			}

			color.New(color.FgGreen, color.Bold).Printf("✔ Valid policy: %s\n", policyCfg.Path)

			fmt.Printf("\nTargets (%d):\n", len(policy.Targets))
			for _, t := range policy.Targets {
				fmt.Printf("  %s -> %s\n", t.Repository, t.Image)
				if t.Dockerfile != "Dockerfile" {
					fmt.Printf("    dockerfile: %s\n", t.Dockerfile)
				}
				if !t.TagWithRefEnabled() {
					fmt.Printf("    tag_with_ref: disabled\n")
				}
				for _, tag := range t.ExtraTags {
					fmt.Printf("    tag: %s\n", tag)
				}
				if t.Platform != "" {
					fmt.Printf("    platform: %s\n", t.Platform)
				}
				for k, v := range t.BuildArgs {
					fmt.Printf("    build_arg: %s=%s\n", k, v)
				}
			}

			if len(policy.Registries) > 0 {
				fmt.Printf("\nRegistries (%d):\n", len(policy.Registries))
				for _, r := range policy.Registries {
					fmt.Printf("  %s (user %s, password from $%s)\n", r.Host, r.Username, r.PasswordEnv)
					if os.Getenv(r.PasswordEnv) == "" {
						color.New(color.FgYellow).Printf("    warning: $%s is not set\n", r.PasswordEnv)
					}
				}
			}

			return nil
		},
	}
}
