package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/devcache/internal/catalog"
	"github.com/fenilsonani/devcache/internal/logging"
	"github.com/fenilsonani/devcache/internal/platform"
	"github.com/fenilsonani/devcache/internal/security"
	"github.com/fenilsonani/devcache/pkg/utils"
	"gopkg.in/yaml.v3"
)

// FileName is the config file inside the config directory
const FileName = "config.yaml"

// Config represents the application configuration
type Config struct {
	MinSize         string    `yaml:"min_size"`
	MaxDepth        int       `yaml:"max_depth"`
	Categories      []string  `yaml:"categories"`
	IncludeGlobal   bool      `yaml:"include_global"`
	ExcludePatterns []string  `yaml:"exclude_patterns"`
	ProtectedPaths  []string  `yaml:"protected_paths"`
	TopN            int       `yaml:"top_n"`
	Log             LogConfig `yaml:"log"`
}

// LogConfig holds the rotating log file settings
type LogConfig struct {
	File       string `yaml:"file"` // empty means <config dir>/cacheclean.log
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load loads configuration from a file. A missing file yields the defaults;
// keys absent from the file keep their default values.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := utils.ParseSize(c.MinSize); err != nil {
		return fmt.Errorf("invalid min_size: %w", err)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0")
	}
	if c.TopN < 0 {
		return fmt.Errorf("top_n must be >= 0")
	}

	cat := catalog.Default()
	for _, name := range c.Categories {
		if !cat.Known(name) {
			return fmt.Errorf("unknown category '%s' (valid: %s)", name, strings.Join(cat.Names(), ", "))
		}
	}

	for _, pattern := range c.ExcludePatterns {
		if err := security.ValidateExcludePattern(pattern); err != nil {
			return fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
	}

	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits must be >= 0")
	}

	return nil
}

// MinSizeBytes returns the parsed min_size threshold
func (c *Config) MinSizeBytes() int64 {
	size, err := utils.ParseSize(c.MinSize)
	if err != nil {
		return utils.DefaultMinSize
	}
	return size
}

// LogOptions returns the logger options, placing the log file in configDir
// unless an explicit file is configured
func (c *Config) LogOptions(configDir string) logging.Options {
	file := c.Log.File
	if file == "" {
		file = filepath.Join(configDir, "cacheclean.log")
	}
	return logging.Options{
		File:       file,
		Level:      c.Log.Level,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// GetConfigDir returns the default config directory, ~/.cacheclean
func GetConfigDir() (string, error) {
	info, err := platform.GetInfo()
	if err != nil {
		return "", err
	}
	return info.ConfigDir(), nil
}

// GetConfigPath returns the config file path inside configDir
func GetConfigPath(configDir string) string {
	return filepath.Join(configDir, FileName)
}

// EnsureConfigExists writes the default config into configDir if there is
// none yet and returns its path
func EnsureConfigExists(configDir string) (string, error) {
	configPath := GetConfigPath(configDir)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(GetDefault(), configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}
