// Package config provides configuration for the gnewcash CLI. It loads
// settings from environment variables and .env files, with an optional YAML
// file underneath; environment variables win over the YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	File    FileConfig    `yaml:"file"`
	Cleanup CleanupConfig `yaml:"cleanup"`
	Debug   bool          `yaml:"debug"`
}

// FileConfig configures the default GnuCash file and save encoding.
type FileConfig struct {
	// Path is the GnuCash file commands operate on when no argument is
	// given.
	Path string `yaml:"path"`

	// Format is the save encoding: xml, gzip-xml or sqlite. Empty keeps the
	// encoding of the existing file.
	Format string `yaml:"format"`

	// Pretty indents XML output.
	Pretty bool `yaml:"pretty"`
}

// CleanupConfig configures the cleanup command.
type CleanupConfig struct {
	// Dir is the directory swept for log and backup files when no argument
	// is given. Empty means the directory of File.Path.
	Dir string `yaml:"dir"`
}

// Load loads configuration from environment variables. It automatically
// loads a .env file from the current directory if available; a custom .env
// path can be passed instead. When GNEWCASH_CONFIG points at a YAML file its
// values are applied first and the environment overrides them.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{}
	if yamlPath := os.Getenv("GNEWCASH_CONFIG"); yamlPath != "" {
		if err := loadYAML(yamlPath, config); err != nil {
			return nil, err
		}
	}

	applyEnv(&config.File.Path, "GNEWCASH_FILE")
	applyEnv(&config.File.Format, "GNEWCASH_FORMAT")
	applyEnvBool(&config.File.Pretty, "GNEWCASH_PRETTY")
	applyEnv(&config.Cleanup.Dir, "GNEWCASH_CLEANUP_DIR")
	applyEnvBool(&config.Debug, "DEBUG")

	switch config.File.Format {
	case "", "xml", "gzip", "gzip-xml", "sqlite":
	default:
		return nil, fmt.Errorf("invalid GNEWCASH_FORMAT: %q", config.File.Format)
	}
	return config, nil
}

// loadYAML reads a YAML config file into the config.
func loadYAML(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overwrites dst when the environment variable is set.
func applyEnv(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// applyEnvBool overwrites dst when the environment variable is set.
func applyEnvBool(dst *bool, key string) {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	}
}
