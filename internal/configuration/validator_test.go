package configuration

import (
	"testing"
)

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantFields []string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:       "unknown source",
			mutate:     func(c *Config) { c.Source = "yarn" },
			wantFields: []string{"source"},
		},
		{
			name:       "relative registry URL",
			mutate:     func(c *Config) { c.Registry.URL = "registry.npmjs.org" },
			wantFields: []string{"registry.url"},
		},
		{
			name:       "empty registry URL",
			mutate:     func(c *Config) { c.Registry.URL = "" },
			wantFields: []string{"registry.url"},
		},
		{
			name:       "basic auth without credentials",
			mutate:     func(c *Config) { c.Registry.AuthType = RegistryAuthTypeBasic },
			wantFields: []string{"registry.username", "registry.password"},
		},
		{
			name:       "token auth without token",
			mutate:     func(c *Config) { c.Registry.AuthType = RegistryAuthTypeToken },
			wantFields: []string{"registry.token"},
		},
		{
			name:       "unknown auth type",
			mutate:     func(c *Config) { c.Registry.AuthType = "oauth" },
			wantFields: []string{"registry.authType"},
		},
		{
			name:       "pnpm source without binary",
			mutate:     func(c *Config) { c.Source = SourceTypePnpm; c.Pnpm.Binary = " " },
			wantFields: []string{"pnpm.binary"},
		},
		{
			name:       "zero concurrency",
			mutate:     func(c *Config) { c.Concurrency = 0 },
			wantFields: []string{"concurrency"},
		},
		{
			name:       "unknown output format",
			mutate:     func(c *Config) { c.Output = "xml" },
			wantFields: []string{"output"},
		},
		{
			name:       "bad ignore globs",
			mutate:     func(c *Config) { c.Ignore = []string{"ok/**", "", "broken[/**"} },
			wantFields: []string{"ignore[1]", "ignore[2]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)

			result := ValidateConfiguration(config)
			if len(tt.wantFields) == 0 {
				if !result.Valid {
					t.Fatalf("expected valid configuration, got %v", result.Errors)
				}
				return
			}
			if result.Valid {
				t.Fatal("expected validation to fail")
			}
			if len(result.Errors) != len(tt.wantFields) {
				t.Fatalf("expected %d errors, got %d: %v", len(tt.wantFields), len(result.Errors), result.Errors)
			}
			for i, field := range tt.wantFields {
				if result.Errors[i].Field != field {
					t.Errorf("error %d: expected field %s, got %s", i, field, result.Errors[i].Field)
				}
			}
		})
	}
}
