package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File permission constants.
const (
	// dirPermissions is used for directory creation (rwxr-x---).
	dirPermissions = 0750
	// filePermissions is used for config files (rw-------).
	filePermissions = 0600
)

// Write saves cfg as YAML at path, creating parent directories.
// Secrets are not written; they belong in the environment.
func Write(cfg *Config, path string) error {
	out := *cfg
	out.Endpoint.Token = ""
	out.Endpoint.APIKey = ""

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if writeErr := os.WriteFile(path, data, filePermissions); writeErr != nil {
		return fmt.Errorf("failed to write file: %w", writeErr)
	}

	return nil
}
