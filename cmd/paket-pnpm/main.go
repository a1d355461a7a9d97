package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eweilow/paket/internal/actions"
	"github.com/eweilow/paket/internal/configuration"
	"github.com/eweilow/paket/internal/source/pnpm"
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
		Name:      "paket-pnpm",
		Version:   version,
		Usage:     "Pin matching dependencies of a pnpm workspace to one version spec",
		ArgsUsage: "<glob>... <version-spec>",
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
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   configuration.DefaultConfigFile,
				Sources: cli.EnvVars("PAKET_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "pnpm",
				Usage:   "pnpm binary to run",
				Sources: cli.EnvVars("PAKET_PNPM"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output format: text, table, json, yaml",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Maximum number of parallel pnpm view calls",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Resolve versions without running pnpm update",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Do not draw a progress bar while resolving",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return initCli(ctx, cmd)
		},
		Action: pinCommand,
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

func pinCommand(ctx context.Context, cmd *cli.Command) error {
	globs, versionSpec, err := actions.ParsePinArgs(cmd.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), util.ExitInvalidArguments)
	}

	config, err := configuration.LoadConfiguration(cmd.String("config"), cmd.IsSet("config"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return cli.Exit(fmt.Sprintf("Configuration load error: %v", err), util.ExitConfiguration)
	}
	config.Source = configuration.SourceTypePnpm
	if cmd.IsSet("pnpm") {
		config.Pnpm.Binary = cmd.String("pnpm")
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
		return cli.Exit("Configuration validation failed", util.ExitConfiguration)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to determine working directory: %v", err), util.ExitFailure)
	}
	log.Info().Str("dir", cwd).Str("spec", versionSpec).Strs("globs", globs).Msg("Running in workspace")

	runner := pnpm.NewExecRunner(config.Pnpm.Binary, cwd)
	if config.Output == configuration.OutputFormatJSON || config.Output == configuration.OutputFormatYAML {
		// keep stdout for the report
		runner.Stdout = os.Stderr
	}

	result, err := actions.Pin(ctx, &actions.PinOptions{
		Globs:       globs,
		VersionSpec: versionSpec,
		DryRun:      cmd.Bool("dry-run"),
		Runner:      runner,
		Concurrency: config.Concurrency,
		Progress:    !cmd.Bool("no-progress"),
	})
	if err != nil {
		log.Error().Err(err).Msg("Pin failed")
		return cli.Exit(err.Error(), util.ExitCode(err))
	}

	if err := actions.OutputPinResult(os.Stdout, result, config.Output); err != nil {
		return cli.Exit(fmt.Sprintf("Output error: %v", err), util.ExitFailure)
	}
	return nil
}
