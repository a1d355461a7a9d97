package configuration

import "time"

// DefaultConfigFile is read from the workspace root when present
const DefaultConfigFile = ".paket.yml"

// DefaultRegistry is the registry queried when nothing else is configured
const DefaultRegistry = "https://registry.npmjs.org"

// DefaultConcurrency bounds parallel version lookups
const DefaultConcurrency = 8

type Config struct {
	Registry    *RegistryConfig `yaml:"registry,omitempty"`
	Source      SourceType      `yaml:"source,omitempty"`
	Pnpm        *PnpmConfig     `yaml:"pnpm,omitempty"`
	Concurrency int             `yaml:"concurrency,omitempty"`
	Ignore      []string        `yaml:"ignore,omitempty"`
	Output      OutputFormat    `yaml:"output,omitempty"`
}

type SourceType string

const (
	SourceTypeRegistry SourceType = "registry"
	SourceTypePnpm     SourceType = "pnpm"
)

type RegistryAuthType string

const (
	RegistryAuthTypeNone  RegistryAuthType = "none"
	RegistryAuthTypeBasic RegistryAuthType = "basic"
	RegistryAuthTypeToken RegistryAuthType = "token"
)

type RegistryConfig struct {
	URL      string           `yaml:"url,omitempty"`
	AuthType RegistryAuthType `yaml:"authType,omitempty"`
	Username string           `yaml:"username,omitempty"`
	Password string           `yaml:"password,omitempty"`
	Token    string           `yaml:"token,omitempty"`
	Timeout  time.Duration    `yaml:"timeout,omitempty"`
}

type PnpmConfig struct {
	Binary string `yaml:"binary,omitempty"` // defaults to "pnpm" on PATH
}

type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// NewDefaultConfig returns the configuration used when no file is present
func NewDefaultConfig() *Config {
	return &Config{
		Registry: &RegistryConfig{
			URL:      DefaultRegistry,
			AuthType: RegistryAuthTypeNone,
		},
		Source:      SourceTypeRegistry,
		Pnpm:        &PnpmConfig{Binary: "pnpm"},
		Concurrency: DefaultConcurrency,
		Output:      OutputFormatText,
	}
}

// applyDefaults fills every field a configuration file left out
func (c *Config) applyDefaults() {
	defaults := NewDefaultConfig()
	if c.Registry == nil {
		c.Registry = defaults.Registry
	}
	if c.Registry.URL == "" {
		c.Registry.URL = DefaultRegistry
	}
	if c.Registry.AuthType == "" {
		c.Registry.AuthType = RegistryAuthTypeNone
	}
	if c.Source == "" {
		c.Source = defaults.Source
	}
	if c.Pnpm == nil {
		c.Pnpm = defaults.Pnpm
	}
	if c.Pnpm.Binary == "" {
		c.Pnpm.Binary = "pnpm"
	}
	if c.Concurrency == 0 {
		c.Concurrency = defaults.Concurrency
	}
	if c.Output == "" {
		c.Output = defaults.Output
	}
}
