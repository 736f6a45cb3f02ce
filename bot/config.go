package bot

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/rewardbot/core/config"
	coredatabase "github.com/m3rciful/rewardbot/core/database"
)

const (
	// DriverJSON keeps the ledger in a single JSON file.
	DriverJSON = "json"
	// DriverPostgres keeps the ledger in PostgreSQL.
	DriverPostgres = "postgres"

	defaultStoragePath = "data.json"
)

// StorageConfig selects the ledger backend.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	// Path is the JSON document location for the json driver.
	Path string `yaml:"path" envconfig:"STORAGE_PATH"`
}

// Config is the reward bot configuration: the shared core plus storage settings.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Storage  StorageConfig       `yaml:"storage"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads path (optional) and the environment, then validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core section and the storage selection.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case "", DriverJSON:
		c.Storage.Driver = DriverJSON
		if strings.TrimSpace(c.Storage.Path) == "" {
			c.Storage.Path = defaultStoragePath
		}
	case DriverPostgres:
		if err := c.Database.Normalize(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: json, postgres", c.Storage.Driver)
	}
	return nil
}
