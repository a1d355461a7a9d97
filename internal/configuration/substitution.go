package configuration

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// placeholderPattern matches ${...} placeholders
var placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

const sopsPrefix = "SOPS["

// Substituter expands placeholders in configuration values.
// Supported forms:
//   - ${VAR_NAME} reads an environment variable, which must be set
//   - ${SOPS[path/to/secrets.yml].npm.token} reads a value from a SOPS encrypted file
type Substituter struct {
	// decrypted files by path, each file is decrypted once per load
	decrypted map[string]map[string]interface{}
}

func NewSubstituter() *Substituter {
	return &Substituter{
		decrypted: make(map[string]map[string]interface{}),
	}
}

// Expand replaces every placeholder in input. The first unresolvable one is an error.
func (s *Substituter) Expand(input string) (string, error) {
	var firstErr error
	expanded := placeholderPattern.ReplaceAllStringFunc(input, func(placeholder string) string {
		if firstErr != nil {
			return placeholder
		}
		expression := placeholder[2 : len(placeholder)-1]

		value, err := s.resolve(expression)
		if err != nil {
			firstErr = fmt.Errorf("cannot substitute %s: %w", placeholder, err)
			return placeholder
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return expanded, nil
}

func (s *Substituter) resolve(expression string) (string, error) {
	if !strings.HasPrefix(expression, sopsPrefix) {
		value, ok := os.LookupEnv(expression)
		if !ok || value == "" {
			return "", fmt.Errorf("environment variable %s is not set", expression)
		}
		return value, nil
	}

	file, path, err := parseSOPSReference(expression)
	if err != nil {
		return "", err
	}

	data, err := s.secrets(file)
	if err != nil {
		return "", fmt.Errorf("failed to load SOPS file %s: %w", file, err)
	}

	value, err := GetYAMLValue(data, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s from %s: %w", path, file, err)
	}
	return fmt.Sprint(value), nil
}

// parseSOPSReference splits SOPS[file].dotted.path into the file and the path
func parseSOPSReference(expression string) (file, path string, err error) {
	rest := strings.TrimPrefix(expression, sopsPrefix)
	file, after, found := strings.Cut(rest, "]")
	if !found {
		return "", "", fmt.Errorf("invalid SOPS reference (missing ]): %s", expression)
	}
	if after == "" {
		return "", "", fmt.Errorf("SOPS reference must include a YAML path: %s", expression)
	}
	path, ok := strings.CutPrefix(after, ".")
	if !ok {
		return "", "", fmt.Errorf("invalid SOPS reference (expected . after ]): %s", expression)
	}
	if path == "" {
		return "", "", fmt.Errorf("SOPS reference must include a YAML path: %s", expression)
	}
	return file, path, nil
}

func (s *Substituter) secrets(file string) (map[string]interface{}, error) {
	if data, ok := s.decrypted[file]; ok {
		return data, nil
	}
	data, err := decryptSecrets(file)
	if err != nil {
		return nil, err
	}
	s.decrypted[file] = data
	return data, nil
}

// ExpandConfig expands placeholders in the registry settings and the pnpm binary
func (s *Substituter) ExpandConfig(config *Config) error {
	if registry := config.Registry; registry != nil {
		fields := []struct {
			name  string
			value *string
		}{
			{"url", &registry.URL},
			{"username", &registry.Username},
			{"password", &registry.Password},
			{"token", &registry.Token},
		}
		for _, field := range fields {
			if err := s.expandField("registry."+field.name, field.value); err != nil {
				return err
			}
		}
	}

	if config.Pnpm != nil {
		if err := s.expandField("pnpm.binary", &config.Pnpm.Binary); err != nil {
			return err
		}
	}
	return nil
}

func (s *Substituter) expandField(name string, value *string) error {
	if *value == "" {
		return nil
	}
	expanded, err := s.Expand(*value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*value = expanded
	return nil
}

// GetYAMLValue walks a decoded YAML document along a dotted path,
// e.g. "npm.token" reads data["npm"]["token"]
func GetYAMLValue(data map[string]interface{}, path string) (interface{}, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	var node interface{} = data
	for i, key := range strings.Split(path, ".") {
		if key == "" {
			return nil, fmt.Errorf("invalid path %s: empty segment at position %d", path, i)
		}

		var value interface{}
		var found bool
		switch m := node.(type) {
		case map[string]interface{}:
			value, found = m[key]
		case map[interface{}]interface{}:
			value, found = m[key]
		default:
			return nil, fmt.Errorf("path not found: %s (%q is not a mapping)", path, key)
		}
		if !found {
			return nil, fmt.Errorf("path not found: %s (missing key %q)", path, key)
		}
		node = value
	}
	return node, nil
}
