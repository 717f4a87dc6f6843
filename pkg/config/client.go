package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

const defaultClientStoreFile = "license-data.json"

// ClientConfig configures the desktop-side license engine.
type ClientConfig struct {
	ServerURL  string `envconfig:"LICENSER_SERVER_URL" default:"http://localhost:8080"`
	AppID      string `envconfig:"LICENSER_CLIENT_APP_ID" default:"petlife"`
	AppVersion string `envconfig:"LICENSER_CLIENT_APP_VERSION" default:"1.0.0"`
	StorePath  string `envconfig:"LICENSER_CLIENT_STORE"`
	LogLevel   string `envconfig:"LICENSER_LOG_LEVEL" default:"warn"`
}

// LoadClient reads the client configuration. StorePath defaults to the user config directory.
func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing client config: %w", err)
	}
	if cfg.StorePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving user config dir: %w", err)
		}
		cfg.StorePath = filepath.Join(dir, cfg.AppID, defaultClientStoreFile)
	}
	return &cfg, nil
}
