package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/securexchat/client-go/internal/crypto"
)

// EnvPrefix prefixes environment overrides, e.g. SECUREXCHAT_SERVER_ADDR.
const EnvPrefix = "SECUREXCHAT"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// ServerConfig is the relay server configuration.
type ServerConfig struct {
	Server    HTTPConfig      `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Expiry    ExpiryConfig    `mapstructure:"expiry"`
	Log       LogConfig       `mapstructure:"log"`
}

type HTTPConfig struct {
	Addr   string `mapstructure:"addr"`
	APIKey string `mapstructure:"apikey"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// DirectoryConfig holds the directory attestation key. SigningSeed is a
// base64 32-byte seed; when empty the relay generates a key at startup.
type DirectoryConfig struct {
	SigningSeed string `mapstructure:"signingseed"`
}

type ExpiryConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweepinterval"`
}

type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
	Debug   bool `mapstructure:"debug"`
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.apiKey", "")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("directory.signingSeed", "")
	v.SetDefault("expiry.retention", 5*time.Minute)
	v.SetDefault("expiry.sweepInterval", time.Minute)
	v.SetDefault("log.verbose", false)
	v.SetDefault("log.debug", false)
}

// LoadServerConfig reads the YAML file at path, applies environment
// overrides and validates the result. An empty path uses defaults and the
// environment only.
func LoadServerConfig(path string) (*ServerConfig, error) {
	v := viper.New()
	setServerDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *ServerConfig) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("%w: storage.dsn is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is empty", ErrInvalidConfig)
	}
	if c.Expiry.Retention <= 0 {
		return fmt.Errorf("%w: expiry.retention must be positive", ErrInvalidConfig)
	}
	if c.Expiry.SweepInterval <= 0 {
		return fmt.Errorf("%w: expiry.sweepInterval must be positive", ErrInvalidConfig)
	}
	if c.Directory.SigningSeed != "" {
		if _, err := c.SigningSeed(); err != nil {
			return err
		}
	}
	return nil
}

// SigningSeed decodes the directory signing seed. It returns nil when no
// seed is configured.
func (c *ServerConfig) SigningSeed() ([]byte, error) {
	if c.Directory.SigningSeed == "" {
		return nil, nil
	}
	seed, err := crypto.DecodeBase64(c.Directory.SigningSeed)
	if err != nil {
		return nil, fmt.Errorf("%w: directory.signingSeed: %v", ErrInvalidConfig, err)
	}
	if len(seed) != crypto.MLDSASeedSize {
		return nil, fmt.Errorf("%w: directory.signingSeed is %d bytes, want %d", ErrInvalidConfig, len(seed), crypto.MLDSASeedSize)
	}
	return seed, nil
}
