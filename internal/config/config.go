package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type StoreConfig struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn,omitempty"`
	Table      string `yaml:"table,omitempty"`
	Database   string `yaml:"database,omitempty"`
	Collection string `yaml:"collection,omitempty"`
}

type ProjectConfig struct {
	Schema           string      `yaml:"schema"`
	SaveFolder       string      `yaml:"save_folder"`
	NameTemplate     string      `yaml:"name_template"`
	NameColumn       *int        `yaml:"name_column,omitempty"`
	NameColumnHeader string      `yaml:"name_column_header,omitempty"`
	Store            StoreConfig `yaml:"store"`
	Timeout          string      `yaml:"timeout"`
}

const ConfigFileName = "csvasset.yaml"

// Load reads csvasset.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	return &cfg, nil
}

// TimeoutDuration parses Timeout. An empty value yields zero.
func (c *ProjectConfig) TimeoutDuration() (time.Duration, error) {
	if c == nil || c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}
