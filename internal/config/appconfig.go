package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/iwvelando/mortgage-planner/internal/store"
	"github.com/iwvelando/mortgage-planner/pkg/constants"
)

// RedisAddrEnv overrides the configured Redis address.
const RedisAddrEnv = "MORTGAGE_PLANNER_REDIS_ADDR"

// AppConfig holds the per-user settings of the planner itself, as opposed to
// a household file.
type AppConfig struct {
	Store   store.Settings `toml:"store"`
	Output  OutputConfig   `toml:"output"`
	Logging LoggingConfig  `toml:"logging"`
}

// DefaultAppConfig returns the default application configuration.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Store: store.Settings{
			Backend:     constants.DefaultStoreBackend,
			RedisAddr:   "localhost:6379",
			RedisPrefix: constants.DefaultRedisPrefix,
		},
		Output: OutputConfig{
			Format: constants.OutputFormatPretty,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// AppConfigDir returns the XDG-compliant config directory.
func AppConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, constants.AppName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", constants.AppName)
}

// AppConfigPath returns the full path to the config file.
func AppConfigPath() string {
	return filepath.Join(AppConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant directory for the SQLite store.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, constants.AppName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", constants.AppName)
}

// LoadAppConfig reads the config file at path, returning defaults if it
// doesn't exist. The Redis address environment variable wins over the file.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	if addr := os.Getenv(RedisAddrEnv); addr != "" {
		cfg.Store.RedisAddr = addr
	}
	return cfg, nil
}

// SaveAppConfig writes the config to path, creating its directory.
func SaveAppConfig(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return toml.NewEncoder(f).Encode(cfg)
}
