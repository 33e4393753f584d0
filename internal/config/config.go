// Package config handles loading scrawl.toml configuration files.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/amonks/scrawl/internal/editor"
	"github.com/amonks/scrawl/internal/paths"
)

// Config represents a scrawl configuration file.
type Config struct {
	Editor Editor `toml:"editor"`
	Buffer Buffer `toml:"buffer"`
}

// Editor contains editor selection settings.
type Editor struct {
	// Command is the editor to launch, split with shell word rules,
	// e.g. "code --wait". It takes precedence over $EDITOR.
	Command string `toml:"command"`
}

// Buffer contains scratch file settings.
type Buffer struct {
	// Extension is appended to scratch file names so editors can pick a
	// syntax mode, e.g. ".md".
	Extension string `toml:"extension"`

	// Dir is the scratch directory. Defaults to the system temp directory.
	Dir string `toml:"dir"`
}

// Load loads configuration from the global config file and from scrawl.toml
// in dir, with project values overriding global ones.
// Returns an empty config if no config files exist.
func Load(dir string) (*Config, error) {
	globalPath, err := paths.DefaultConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, _, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(paths.ProjectConfigPath(dir))
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(globalCfg, projectCfg, projectMeta)
	if _, _, err := merged.EditorCommand(); err != nil {
		return nil, err
	}
	return merged, nil
}

// EditorCommand returns the configured editor command, if any.
func (c *Config) EditorCommand() (editor.Command, bool, error) {
	if c == nil || c.Editor.Command == "" {
		return editor.Command{}, false, nil
	}
	cmd, err := editor.Parse(c.Editor.Command)
	if err != nil {
		return editor.Command{}, false, fmt.Errorf("editor.command: %w", err)
	}
	return cmd, true, nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: unknown key %s", path, undecoded[0])
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, projectMeta toml.MetaData) *Config {
	if globalCfg == nil {
		globalCfg = &Config{}
	}
	if projectCfg == nil {
		projectCfg = &Config{}
	}

	merged := Config{}
	merged.Editor.Command = mergeString(projectMeta.IsDefined("editor", "command"), projectCfg.Editor.Command, globalCfg.Editor.Command)
	merged.Buffer.Extension = mergeString(projectMeta.IsDefined("buffer", "extension"), projectCfg.Buffer.Extension, globalCfg.Buffer.Extension)
	merged.Buffer.Dir = mergeString(projectMeta.IsDefined("buffer", "dir"), projectCfg.Buffer.Dir, globalCfg.Buffer.Dir)

	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}
