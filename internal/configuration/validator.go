package configuration

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains the results of configuration validation
type ValidationResult struct {
	Valid  bool
	Errors []*ValidationError
}

// AddError adds a validation error to the result
func (r *ValidationResult) AddError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, &ValidationError{
		Field:   field,
		Message: message,
	})
}

// ValidateConfiguration performs validation on the configuration.
// It expects defaults to have been applied already.
func ValidateConfiguration(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:  true,
		Errors: make([]*ValidationError, 0),
	}

	if !isValidSourceType(config.Source) {
		result.AddError("source", fmt.Sprintf("invalid source type: %s", config.Source))
	}

	if config.Registry == nil {
		if config.Source == SourceTypeRegistry {
			result.AddError("registry", "registry configuration is required for the registry source")
		}
	} else {
		validateRegistry(config.Registry, result)
	}

	if config.Source == SourceTypePnpm && (config.Pnpm == nil || strings.TrimSpace(config.Pnpm.Binary) == "") {
		result.AddError("pnpm.binary", "binary cannot be empty for the pnpm source")
	}

	if config.Concurrency < 1 {
		result.AddError("concurrency", fmt.Sprintf("concurrency must be at least 1, got %d", config.Concurrency))
	}

	if !isValidOutputFormat(config.Output) {
		result.AddError("output", fmt.Sprintf("invalid output format: %s", config.Output))
	}

	for i, pattern := range config.Ignore {
		field := fmt.Sprintf("ignore[%d]", i)
		if strings.TrimSpace(pattern) == "" {
			result.AddError(field, "ignore pattern cannot be empty")
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			result.AddError(field, fmt.Sprintf("invalid glob pattern: %s", pattern))
		}
	}

	return result
}

func validateRegistry(registry *RegistryConfig, result *ValidationResult) {
	if strings.TrimSpace(registry.URL) == "" {
		result.AddError("registry.url", "registry URL cannot be empty")
	} else if parsed, err := url.Parse(registry.URL); err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		result.AddError("registry.url", fmt.Sprintf("registry URL must be an absolute http(s) URL: %s", registry.URL))
	}

	if !isValidAuthType(registry.AuthType) {
		result.AddError("registry.authType", fmt.Sprintf("invalid auth type: %s", registry.AuthType))
	}

	if registry.AuthType == RegistryAuthTypeBasic {
		if strings.TrimSpace(registry.Username) == "" {
			result.AddError("registry.username", "username is required for basic auth")
		}
		if strings.TrimSpace(registry.Password) == "" {
			result.AddError("registry.password", "password is required for basic auth")
		}
	}

	if registry.AuthType == RegistryAuthTypeToken && strings.TrimSpace(registry.Token) == "" {
		result.AddError("registry.token", "token is required for token auth")
	}

	if registry.Timeout < 0 {
		result.AddError("registry.timeout", "timeout cannot be negative")
	}
}

func isValidSourceType(sourceType SourceType) bool {
	switch sourceType {
	case SourceTypeRegistry, SourceTypePnpm:
		return true
	default:
		return false
	}
}

func isValidAuthType(authType RegistryAuthType) bool {
	switch authType {
	case RegistryAuthTypeNone, RegistryAuthTypeBasic, RegistryAuthTypeToken:
		return true
	default:
		return false
	}
}

func isValidOutputFormat(format OutputFormat) bool {
	switch format {
	case OutputFormatText, OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}
