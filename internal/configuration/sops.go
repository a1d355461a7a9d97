package configuration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/getsops/sops/v3/decrypt"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// decryptSecrets decrypts a SOPS file and decodes its cleartext.
// Keys (age, PGP, cloud KMS) are found through the usual SOPS environment and config files.
func decryptSecrets(file string) (map[string]interface{}, error) {
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("file does not exist: %s", file)
	}

	cleartext, err := decrypt.File(file, sopsFormat(file))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt SOPS file: %w", err)
	}

	if sopsFormat(file) == "dotenv" {
		env, err := godotenv.UnmarshalBytes(cleartext)
		if err != nil {
			return nil, fmt.Errorf("failed to parse decrypted data: %w", err)
		}
		data := make(map[string]interface{}, len(env))
		for key, value := range env {
			data[key] = value
		}
		return data, nil
	}

	// json cleartext is valid YAML as well
	var data map[string]interface{}
	if err := yaml.Unmarshal(cleartext, &data); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted data: %w", err)
	}
	return data, nil
}

func sopsFormat(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json":
		return "json"
	case ".env":
		return "dotenv"
	default:
		return "yaml"
	}
}
