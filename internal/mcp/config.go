package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"kusto-mcp/internal/auth"
)

// Config holds the configuration for the MCP server process.
type Config struct {
	// Server information
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`

	// Credential strategies tried in order at startup.
	AuthOrder []string `yaml:"auth_order" json:"auth_order"`

	// Resource configuration
	EnableResources bool `yaml:"enable_resources" json:"enable_resources"`

	// Logging configuration
	LogLevel string `yaml:"log_level" json:"log_level"`
	LogFile  string `yaml:"log_file" json:"log_file"`
}

// DefaultConfig returns the default configuration for the MCP server.
func DefaultConfig() *Config {
	return &Config{
		Name:        "kusto-mcp-server",
		Version:     "1.0.0",
		Description: "MCP server exposing Azure Data Explorer (Kusto) clusters",

		AuthOrder:       auth.DefaultOrder,
		EnableResources: true,

		LogLevel: "info",
	}
}

// Validate validates the configuration, defaulting optional fields.
func (c *Config) Validate() error {
	if c.Name == "" {
		return &ConfigError{Field: "name", Message: "server name is required"}
	}
	if c.Version == "" {
		return &ConfigError{Field: "version", Message: "server version is required"}
	}
	if len(c.AuthOrder) == 0 {
		c.AuthOrder = auth.DefaultOrder
	}
	for _, s := range c.AuthOrder {
		switch s {
		case auth.StrategyDefault, auth.StrategyCLI, auth.StrategyBrowser, auth.StrategyDeviceCode:
		default:
			return &ConfigError{Field: "auth_order", Message: "unknown credential strategy: " + s}
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return nil
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// LoadConfig loads server configuration from a YAML or JSON file.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch ext := filepath.Ext(configPath); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return config, nil
}
