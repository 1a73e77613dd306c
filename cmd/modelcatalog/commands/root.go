package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/modelcatalog/internal/app"
	"github.com/florianilch/modelcatalog/internal/catalog"
	"github.com/florianilch/modelcatalog/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	return newRootCommand(version, commit).Run(ctx, args)
}

func newRootCommand(version, commit string) *cli.Command {
	return &cli.Command{
		Name:    "modelcatalog",
		Usage:   "Chat and embedding model catalog for AI providers",
		Version: fmt.Sprintf("%s (commit %s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file",
				Sources: cli.EnvVars(envPrefix + "CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: "text",
			},
			&cli.StringFlag{
				Name:  "log-exporter",
				Usage: "OpenTelemetry log exporter (none|stdout|otlp-grpc|otlp-http)",
				Value: observability.ExporterNone,
			},
			&cli.StringFlag{
				Name:  "log-endpoint",
				Usage: "OTLP collector endpoint (host:port); defaults to the OTEL_EXPORTER_OTLP_* environment",
			},
		},
		Commands: []*cli.Command{
			startCommand(version),
			listCommand(version),
			authCommand(),
		},
	}
}

func startCommand(version string) *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Starts the model catalog server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "listen address (host:port)",
			},
			&cli.StringFlag{
				Name:  "models-path",
				Usage: "route of the model listing endpoint",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "serve Prometheus metrics",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "fail the listing when any provider fails",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return startAction(ctx, cmd, version)
		},
	}
}

func startAction(ctx context.Context, cmd *cli.Command, version string) (err error) {
	// Set up observability before creating app
	shutdown, err := instrument(ctx, cmd, version)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := shutdown(context.WithoutCancel(ctx)); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()

	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	application, err := app.New(cfg, credentialStore(cfg))
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting", "version", version)

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}

func listCommand(version string) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Prints the model listing once as JSON",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "fail when any provider fails",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return listAction(ctx, cmd, version)
		},
	}
}

func listAction(ctx context.Context, cmd *cli.Command, version string) error {
	shutdown, err := instrument(ctx, cmd, version)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.WithoutCancel(ctx)) }()

	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	registry, err := cfg.NewRegistry(credentialStore(cfg))
	if err != nil {
		return fmt.Errorf("failed to create provider registry: %w", err)
	}

	listing, err := catalog.Fetch(ctx, registry)
	if err != nil {
		return fmt.Errorf("failed to fetch model catalogs: %w", err)
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(listing)
}

// instrument configures logging from the global flags.
func instrument(ctx context.Context, cmd *cli.Command, version string) (func(context.Context) error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	shutdown, err := observability.Instrument(ctx, observability.Options{
		Level:          level,
		Format:         cmd.String("log-format"),
		Exporter:       cmd.String("log-exporter"),
		Endpoint:       cmd.String("log-endpoint"),
		ServiceName:    "modelcatalog",
		ServiceVersion: version,
		Writer:         os.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}
	return shutdown, nil
}

// credentialStore returns the keyring store when configured, nil otherwise.
func credentialStore(cfg *app.Config) app.CredentialStore {
	if cfg.Auth.Storage != app.CredentialStorageKeyring {
		return nil
	}
	return app.KeyringStore{Service: app.KeyringService}
}
