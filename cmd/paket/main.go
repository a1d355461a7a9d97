package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eweilow/paket/internal/actions"
	"github.com/eweilow/paket/internal/compare"
	"github.com/eweilow/paket/internal/configuration"
	"github.com/eweilow/paket/internal/source"
	"github.com/eweilow/paket/internal/util"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var version = "development"

func main() {

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{},
		Usage:   "print only the version",
	}

	cmd := &cli.Command{
		Name:    "paket",
		Version: version,
		Usage:   "Keep package.json dependencies of a workspace up to date",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "debug output",
				Sources: cli.EnvVars("PAKET_VERBOSE"),
			},
			&cli.BoolFlag{
				Name:    "very-verbose",
				Aliases: []string{"vv"},
				Usage:   "trace output",
				Sources: cli.EnvVars("PAKET_VERY_VERBOSE"),
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "disable colours in logs and reports",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return initCli(ctx, cmd)
		},
		Commands: []*cli.Command{
			{
				Name:      "update",
				Usage:     "Rewrite matching dependencies to the selected version",
				ArgsUsage: "<any|latest> <glob>...",
				Flags:     runFlags(),
				Action:    runCommand(actions.OperationUpdate),
			},
			{
				Name:      "check",
				Usage:     "Report matching dependencies that are not at the selected version",
				ArgsUsage: "<any|latest> <glob>...",
				Flags: append(runFlags(),
					&cli.BoolFlag{
						Name:  "fail-on-changes",
						Usage: "Exit with code 1 when updates are available",
					},
				),
				Action: runCommand(actions.OperationCheck),
			},
			{
				Name:  "validate",
				Usage: "Validate configuration",
				Flags: []cli.Flag{
					configFlag(),
					registryFlag(),
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output format: text, json, yaml",
						Value: string(configuration.OutputFormatText),
					},
				},
				Action: validateCommand,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("command terminated with error")
	}
}

func initCli(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	godotenv.Load()
	noColor := util.NoColorRequested(cmd)
	util.SetCliLoggerDefaults(noColor)
	util.SetCliLogLevel(cmd)
	util.SetReportColors(!noColor)
	log.Trace().Msg("Trace logging enabled")
	log.Debug().Msg("Debug logging enabled")

	return ctx, nil
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   configuration.DefaultConfigFile,
		Sources: cli.EnvVars("PAKET_CONFIG"),
	}
}

func registryFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "registry",
		Usage:   "Registry base URL",
		Sources: cli.EnvVars(configuration.RegistryEnvVar),
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		registryFlag(),
		&cli.StringFlag{
			Name:  "root",
			Usage: "Workspace root to search for package.json files",
			Value: ".",
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Version source: registry, pnpm",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, table, json, yaml",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Maximum number of parallel version lookups",
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "Do not draw a progress bar while resolving",
		},
	}
}

// loadConfig reads the configuration file and applies command line overrides.
// Errors are returned as exit errors with the configuration exit code.
func loadConfig(cmd *cli.Command) (*configuration.Config, error) {
	configPath := cmd.String("config")
	config, err := configuration.LoadConfiguration(configPath, cmd.IsSet("config"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return nil, cli.Exit(fmt.Sprintf("Configuration load error: %v", err), util.ExitConfiguration)
	}

	config.ApplyRegistryOverride(cmd.String("registry"))
	if cmd.IsSet("source") {
		config.Source = configuration.SourceType(cmd.String("source"))
	}
	if cmd.IsSet("output") {
		config.Output = configuration.OutputFormat(cmd.String("output"))
	}
	if cmd.IsSet("concurrency") {
		config.Concurrency = cmd.Int("concurrency")
	}

	validationResult := configuration.ValidateConfiguration(config)
	if !validationResult.Valid {
		for _, validationErr := range validationResult.Errors {
			log.Error().Str("field", validationErr.Field).Msg(validationErr.Message)
		}
		return nil, cli.Exit("Configuration validation failed", util.ExitConfiguration)
	}

	return config, nil
}

func runCommand(operation actions.Operation) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		args := cmd.Args().Slice()
		if len(args) < 2 {
			return cli.Exit(fmt.Sprintf("Usage: paket %s <any|latest> <glob>...", operation), util.ExitInvalidArguments)
		}

		mode, err := compare.ParseMode(args[0])
		if err != nil {
			return cli.Exit(err.Error(), util.ExitInvalidArguments)
		}

		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		root := cmd.String("root")
		versionSource, err := source.New(config, root)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Source error: %v", err), util.ExitConfiguration)
		}

		sourceLabel := config.Registry.URL
		if config.Source == configuration.SourceTypePnpm {
			sourceLabel = config.Pnpm.Binary
		}

		result, err := actions.Run(ctx, &actions.RunOptions{
			Root:        root,
			Operation:   operation,
			Mode:        mode,
			Globs:       args[1:],
			Source:      versionSource,
			SourceLabel: sourceLabel,
			Concurrency: config.Concurrency,
			Ignore:      config.Ignore,
			Progress:    !cmd.Bool("no-progress"),
		})
		if err != nil {
			log.Error().Err(err).Str("operation", string(operation)).Msg("Run failed")
			return cli.Exit(err.Error(), util.ExitCode(err))
		}

		if err := actions.OutputRunResult(os.Stdout, result, config.Output); err != nil {
			return cli.Exit(fmt.Sprintf("Output error: %v", err), util.ExitFailure)
		}

		if operation == actions.OperationCheck && result.Changed && cmd.Bool("fail-on-changes") {
			return cli.Exit(fmt.Sprintf("%d update(s) available", result.ChangeCount), util.ExitFailure)
		}
		return nil
	}
}

func validateCommand(ctx context.Context, cmd *cli.Command) error {
	_, err := actions.Validate(&actions.ValidateOptions{
		ConfigPath:   cmd.String("config"),
		Registry:     cmd.String("registry"),
		OutputFormat: configuration.OutputFormat(cmd.String("output")),
		Out:          os.Stdout,
	})
	if err != nil {
		return cli.Exit(err.Error(), util.ExitConfiguration)
	}
	return nil
}
