package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"uefbridge/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/uefbridge"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns the user config directory. It panics
// when the home directory cannot be determined, which on every supported
// platform means the environment is broken beyond recovery.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from the specified directory. A missing
// config.yaml is not an error (defaults apply); a malformed one is.
func LoadConfig(configPath string) (BridgeConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "no config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return BridgeConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return BridgeConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	logging.Info("Config", "loaded configuration from %s", configFilePath)
	return config, nil
}

// Validate checks the invariants a session cannot start without.
func (c *BridgeConfig) Validate() error {
	if c.HostOrigin == "" {
		return fmt.Errorf("hostOrigin is required: the client must not handshake without a trusted host origin")
	}
	if c.Embed.URL == "" {
		return fmt.Errorf("embed.url is required")
	}
	if c.Help.ID == "" && c.Route.Name == "" {
		return fmt.Errorf("at least one of help.id or route.name must be configured")
	}
	return nil
}
