package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigEnvVar overrides the location of the global config file.
const ConfigEnvVar = "SCRAWL_CONFIG"

// ProjectConfigName is the per-directory config file name.
const ProjectConfigName = "scrawl.toml"

// HomeDir returns the current user's home directory.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return home, nil
}

// DefaultConfigPath returns the global scrawl config file path.
func DefaultConfigPath() (string, error) {
	if override := os.Getenv(ConfigEnvVar); override != "" {
		return override, nil
	}

	home, err := HomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".config", "scrawl", "config.toml"), nil
}

// ProjectConfigPath returns the project config file path inside dir.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ProjectConfigName)
}

// WorkingDir returns the current working directory.
func WorkingDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}

// ResolveWithDefault returns override if set, otherwise the result of fallback.
func ResolveWithDefault(override string, fallback func() (string, error)) (string, error) {
	if override != "" {
		return override, nil
	}
	return fallback()
}
