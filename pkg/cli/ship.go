package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/stevedore/pkg/cli/config"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/domain/types"
	"github.com/m-mizutani/stevedore/pkg/infra/store"
	"github.com/m-mizutani/stevedore/pkg/usecase"
)

func cmdShip() *cli.Command {
	var (
		githubCfg   config.GitHub
		policyCfg   config.Policy
		builderCfg  config.Builder
		buildLogCfg config.BuildLog
		registryCfg config.Registry
	)
	var (
		repository string
		tag        string
		dryRun     bool
	)

	flags := append(githubCfg.Flags(), policyCfg.Flags()...)
	flags = append(flags, builderCfg.Flags()...)
	flags = append(flags, buildLogCfg.Flags()...)
	flags = append(flags, registryCfg.Flags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "repository",
			Aliases:     []string{"r"},
			Usage:       "Repository to ship in owner/name form",
			Required:    true,
			Destination: &repository,
		},
		&cli.StringFlag{
			Name:        "tag",
			Aliases:     []string{"t"},
			Usage:       "Release tag to ship",
			Required:    true,
			Destination: &tag,
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Build the image but do not push it",
			Destination: &dryRun,
		},
	)

	return &cli.Command{
		Name:  "ship",
		Usage: "Ship a single release without waiting for a webhook",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			owner, name, ok := strings.Cut(repository, "/")
			if !ok || owner == "" || name == "" {
				return goerr.New("repository must be in owner/name form", goerr.V("repository", repository))
			}

			policy, err := policyCfg.Load()
			if err != nil {
				return err
			}

			buildTimeout, err := builderCfg.Timeout()
			if err != nil {
				return err
			}

			githubClient, err := githubCfg.NewClient()
			if err != nil {
				return err
			}

			builder, err := builderCfg.NewBuilder(ctx)
			if err != nil {
				return err
			}
			defer builder.Close()

			logStore, err := buildLogCfg.NewStore(ctx)
			if err != nil {
				return err
			}

			deliveryStore := store.NewMemory()

			shipOpts := []usecase.ShipOption{
				usecase.WithPolicy(policy),
				usecase.WithBuildTimeout(buildTimeout),
			}
			if logStore != nil {
				shipOpts = append(shipOpts, usecase.WithLogStore(logStore))
			}
			if cred := registryCfg.Credential(); cred != nil {
				shipOpts = append(shipOpts, usecase.WithRegistryCredential(cred))
			}
			if dryRun {
				shipOpts = append(shipOpts, usecase.WithDryRun())
			}

			shipUC := usecase.NewShip(githubClient, builder, deliveryStore, shipOpts...)

			info := &model.ReleaseInfo{
				Owner:   owner,
				Repo:    name,
				TagName: tag,
				Ref:     "refs/tags/" + tag,
			}
			delivery := model.NewDelivery(types.DeliveryID(uuid.NewString()), info, time.Now())

			if err := deliveryStore.Insert(ctx, delivery); err != nil {
				return err
			}

			runErr := shipUC.ShipRelease(ctx, delivery)

			result, err := deliveryStore.Get(ctx, delivery.ID)
			if err != nil {
				return err
			}
			printDelivery(result)

			if runErr != nil {
				return goerr.Wrap(runErr, "shipping failed")
			}
			return nil
		},
	}
}

func printDelivery(d *model.Delivery) {
	switch d.Status {
	case model.DeliverySucceeded:
		color.New(color.FgGreen, color.Bold).Printf("✔ Shipped %s %s\n", d.Repository, d.TagName)
	case model.DeliverySkipped:
		color.New(color.FgYellow).Printf("– Skipped %s %s: no shipping target matches\n", d.Repository, d.TagName)
		return
	default:
		color.New(color.FgRed, color.Bold).Printf("✘ Failed to ship %s %s\n", d.Repository, d.TagName)
	}

	if d.Image != "" {
		fmt.Printf("  Image:    %s\n", d.Image)
	}
	for _, t := range d.Tags {
		if t != d.Image {
			fmt.Printf("  Tag:      %s\n", t)
		}
	}
	if d.Digest != "" {
		fmt.Printf("  Digest:   %s\n", d.Digest)
	}
	if dur := d.Duration(); dur > 0 {
		fmt.Printf("  Duration: %s\n", dur.Round(time.Second))
	}
	if d.LogURL != "" {
		fmt.Printf("  Log:      %s\n", d.LogURL)
	}
	if d.Error != "" {
		fmt.Printf("  Error:    %s\n", d.Error)
	}
}
