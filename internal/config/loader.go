package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			// Config file is optional, don't fail if it doesn't exist
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)
	cfg.Normalize()
	return cfg, nil
}

// LoadFrom loads configuration from an explicit file path, still
// applying environment overrides and normalization.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadFromFile(cfg, path); err != nil {
		return nil, err
	}
	loadFromEnv(cfg)
	cfg.Normalize()
	return cfg, nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "locode", "config.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	// On macOS prefer Library/Application Support/locode when present.
	if runtime.GOOS == "darwin" {
		appSupport := filepath.Join(homeDir, "Library", "Application Support", "locode", "config.yaml")
		if _, err := os.Stat(appSupport); err == nil {
			return appSupport
		}
		dotConfig := filepath.Join(homeDir, ".config", "locode", "config.yaml")
		if _, err := os.Stat(dotConfig); err == nil {
			return dotConfig
		}
		return appSupport
	}

	return filepath.Join(homeDir, ".config", "locode", "config.yaml")
}

// GetConfigPath returns the path to the config file (exported for external use).
func GetConfigPath() string {
	return getConfigPath()
}

// GetConfigDir returns the directory holding the config file.
func GetConfigDir() string {
	path := getConfigPath()
	if path == "" {
		return ""
	}
	return filepath.Dir(path)
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Expand environment variables in the config file
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(cfg *Config) {
	if baseURL := os.Getenv("LOCODE_BASE_URL"); baseURL != "" {
		cfg.Model.BaseURL = baseURL
	} else if baseURL := os.Getenv("OLLAMA_HOST"); baseURL != "" {
		cfg.Model.BaseURL = baseURL
	}

	if model := os.Getenv("LOCODE_MODEL"); model != "" {
		cfg.Model.Name = model
	}

	if level := os.Getenv("LOCODE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if workDir := os.Getenv("LOCODE_WORK_DIR"); workDir != "" {
		cfg.Tools.WorkDir = workDir
	}

	if limit := os.Getenv("LOCODE_STEP_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			cfg.Agent.StepLimit = n
		}
	}
}

// Save saves the configuration to the config file.
func (c *Config) Save() error {
	configPath := getConfigPath()
	if configPath == "" {
		return fmt.Errorf("could not determine config path")
	}
	return c.SaveTo(configPath)
}

// SaveTo writes the configuration to an explicit path.
func (c *Config) SaveTo(configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to a temp file then rename so readers never see a torn file.
	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		// If rename fails, try direct write (Windows filesystem)
		if err := os.WriteFile(configPath, data, 0600); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return nil
}
