package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/stevedore/pkg/cli/config"
	controller "github.com/m-mizutani/stevedore/pkg/controller/http"
	"github.com/m-mizutani/stevedore/pkg/usecase"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		webhookCfg  config.Webhook
		githubCfg   config.GitHub
		policyCfg   config.Policy
		storeCfg    config.Store
		builderCfg  config.Builder
		buildLogCfg config.BuildLog
		slackCfg    config.Slack
		registryCfg config.Registry
	)
	var reportStatus bool

	flags := append(serverCfg.Flags(), webhookCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)
	flags = append(flags, storeCfg.Flags()...)
	flags = append(flags, builderCfg.Flags()...)
	flags = append(flags, buildLogCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, registryCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "report-commit-status",
		Usage:       "Report shipping progress as commit statuses on the release commit",
		Destination: &reportStatus,
		Sources:     cli.EnvVars("STEVEDORE_REPORT_COMMIT_STATUS"),
	})

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the webhook server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			policy, err := policyCfg.Load()
			if err != nil {
				return err
			}

			buildTimeout, err := builderCfg.Timeout()
			if err != nil {
				return err
			}

			concurrency, err := builderCfg.Concurrency()
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
			defer func() {
				if err := builder.Close(); err != nil {
					logger.Warn("Failed to close image builder", slog.Any("error", err))
				}
			}()

			deliveryStore, err := storeCfg.NewStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := deliveryStore.Close(); err != nil {
					logger.Warn("Failed to close delivery store", slog.Any("error", err))
				}
			}()

			logStore, err := buildLogCfg.NewStore(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if closer, ok := logStore.(interface{ Close() error }); ok {
					if err := closer.Close(); err != nil {
						logger.Warn("Failed to close build log store", slog.Any("error", err))
					}
				}
			}()

			// Assemble use cases
			shipOpts := []usecase.ShipOption{
				usecase.WithPolicy(policy),
				usecase.WithBuildTimeout(buildTimeout),
				usecase.WithConcurrency(concurrency),
			}
			if notifier := slackCfg.Notifier(); notifier != nil {
				shipOpts = append(shipOpts, usecase.WithNotifier(notifier))
			}
			if logStore != nil {
				shipOpts = append(shipOpts, usecase.WithLogStore(logStore))
			}
			if cred := registryCfg.Credential(); cred != nil {
				shipOpts = append(shipOpts, usecase.WithRegistryCredential(cred))
			}
			if reportStatus {
				shipOpts = append(shipOpts, usecase.WithCommitStatus())
			}

			shipUC := usecase.NewShip(githubClient, builder, deliveryStore, shipOpts...)
			webhookUC := usecase.NewWebhook(shipUC, deliveryStore)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				webhookUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(webhookCfg.Secret),
				controller.WithStore(deliveryStore),
				controller.WithMetrics(),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			logger.Info("Starting stevedore server",
				slog.String("addr", serverCfg.Addr),
				slog.Int("targets", len(policy.Targets)),
				slog.Int("max_concurrent_builds", concurrency),
				slog.Duration("build_timeout", buildTimeout),
			)

			// Start server in goroutine
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown. The parent context may already be cancelled,
			// so the shutdown deadline gets its own context.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
