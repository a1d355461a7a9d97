package source

import (
	"fmt"

	"github.com/eweilow/paket/internal/configuration"
	"github.com/eweilow/paket/internal/source/npm"
	"github.com/eweilow/paket/internal/source/pnpm"
	"github.com/rs/zerolog/log"
)

// New builds the version source selected by the configuration.
// workDir is where the package manager runs for the pnpm source.
func New(config *configuration.Config, workDir string) (VersionSource, error) {
	switch config.Source {
	case configuration.SourceTypeRegistry, "":
		if config.Registry == nil {
			return nil, fmt.Errorf("registry source requires a registry configuration")
		}
		log.Debug().Str("registry", config.Registry.URL).Msg("Using registry version source")
		return NewRegistrySource(registryOptions(config.Registry)), nil
	case configuration.SourceTypePnpm:
		binary := "pnpm"
		if config.Pnpm != nil && config.Pnpm.Binary != "" {
			binary = config.Pnpm.Binary
		}
		log.Debug().Str("binary", binary).Str("dir", workDir).Msg("Using pnpm version source")
		return NewToolSource(pnpm.NewClient(pnpm.NewExecRunner(binary, workDir), "")), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", config.Source)
	}
}

func registryOptions(registry *configuration.RegistryConfig) *npm.Options {
	return &npm.Options{
		BaseURL:  registry.URL,
		AuthType: npm.AuthType(registry.AuthType),
		Username: registry.Username,
		Password: registry.Password,
		Token:    registry.Token,
		Timeout:  registry.Timeout,
	}
}
