package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Marshal encodes the config as TOML when format is "toml" and as YAML
// otherwise.
func (c *Config) Marshal(format string) ([]byte, error) {
	if format == "toml" {
		return toml.Marshal(c)
	}
	return yaml.Marshal(c)
}

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), "hairball.yaml"))
}

// SaveTo writes the config to a specific path, in TOML when the path ends
// in .toml.
func (c *Config) SaveTo(path string) error {
	// Create parent directory if needed
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	format := "yaml"
	if isTOML(path) {
		format = "toml"
	}
	data, err := c.Marshal(format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
