package actions

import (
	"fmt"
	"io"

	"github.com/eweilow/paket/internal/configuration"
	"github.com/rs/zerolog/log"
)

type ValidateOptions struct {
	ConfigPath   string
	Registry     string
	OutputFormat configuration.OutputFormat
	Out          io.Writer
}

// ValidationFailedError is returned when the configuration has validation errors
type ValidationFailedError struct {
	Count int
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("configuration validation failed with %d error(s)", e.Count)
}

func Validate(options *ValidateOptions) (*configuration.ValidationResult, error) {
	log.Debug().Str("config", options.ConfigPath).Msg("Loading configuration...")

	config, err := configuration.LoadConfiguration(options.ConfigPath, false)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return nil, fmt.Errorf("configuration load error: %w", err)
	}
	config.ApplyRegistryOverride(options.Registry)

	log.Debug().Msg("Configuration loaded successfully")

	validationResult := configuration.ValidateConfiguration(config)

	if err := OutputValidationResult(options.Out, validationResult, options.OutputFormat); err != nil {
		log.Error().Err(err).Msg("Failed to output validation results")
		return nil, fmt.Errorf("output error: %w", err)
	}

	if !validationResult.Valid {
		return validationResult, &ValidationFailedError{Count: len(validationResult.Errors)}
	}

	log.Info().Msg("Configuration is valid")
	return validationResult, nil
}

// OutputValidationResult writes validation results in the requested format
func OutputValidationResult(w io.Writer, result *configuration.ValidationResult, format configuration.OutputFormat) error {
	output := map[string]interface{}{
		"valid":      result.Valid,
		"errorCount": len(result.Errors),
		"errors":     result.Errors,
	}

	switch format {
	case configuration.OutputFormatText, configuration.OutputFormatTable, "":
		return outputValidationText(w, result)
	case configuration.OutputFormatJSON:
		return encodeJSON(w, output)
	case configuration.OutputFormatYAML:
		return encodeYAML(w, output)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func outputValidationText(w io.Writer, result *configuration.ValidationResult) error {
	if result.Valid {
		fmt.Fprintln(w, "✓ Configuration is valid")
		return nil
	}

	fmt.Fprintln(w, "✗ Configuration validation failed:")
	fmt.Fprintln(w)
	for _, err := range result.Errors {
		fmt.Fprintf(w, "  • %s\n", err.Error())
	}
	fmt.Fprintf(w, "\nTotal errors: %d\n", len(result.Errors))
	return nil
}
