package configuration

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// RegistryEnvVar overrides the configured registry URL
const RegistryEnvVar = "PAKET_REGISTRY"

// IgnoreFile lists manifest ignore globs, one per line, replacing the configured list
const IgnoreFile = ".paketignore"

// LoadConfiguration reads the configuration file at configPath.
// A missing file yields the defaults unless required is set.
// Environment variable and SOPS references are substituted in registry credentials.
func LoadConfiguration(configPath string, required bool) (*Config, error) {
	config, err := loadConfigurationFile(configPath, required)
	if err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := NewSubstituter().ExpandConfig(config); err != nil {
		return nil, fmt.Errorf("failed to substitute variables: %w", err)
	}

	return config, nil
}

func loadConfigurationFile(configPath string, required bool) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			log.Debug().Str("config", configPath).Msg("No configuration file found, using defaults")
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var config Config
	if len(bytes.TrimSpace(data)) == 0 {
		return &config, nil
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration YAML: %w", err)
	}

	log.Debug().Str("config", configPath).Msg("Loaded configuration file")
	return &config, nil
}

// ApplyRegistryOverride replaces the registry URL when override is non-empty
func (c *Config) ApplyRegistryOverride(override string) {
	override = strings.TrimSpace(override)
	if override == "" {
		return
	}
	if c.Registry == nil {
		c.Registry = &RegistryConfig{AuthType: RegistryAuthTypeNone}
	}
	log.Debug().Str("registry", override).Msg("Overriding registry URL")
	c.Registry.URL = override
}

// LoadIgnoreFile reads root/.paketignore. found is false when the file does not exist.
// Lines are trimmed and blank lines dropped.
func LoadIgnoreFile(root string) (patterns []string, found bool, err error) {
	ignorePath := filepath.Join(root, IgnoreFile)
	file, err := os.Open(ignorePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open %s: %w", ignorePath, err)
	}
	defer file.Close()

	patterns = make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", ignorePath, err)
	}

	return patterns, true, nil
}
