package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/joacominatel/dblab/internal/database"
)

const (
	configDir  = ".dblab"
	configFile = "config"
	configType = "yaml"
	envPrefix  = "DBLAB"
)

// Defaults applied when the file or environment leaves a preference unset.
const (
	DefaultTheme          = "default"
	DefaultQueryTimeout   = 30 * time.Second
	DefaultMaxDisplayRows = 1000
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("preferences.theme", DefaultTheme)
	v.SetDefault("preferences.default_connection", "")
	v.SetDefault("preferences.default_schema", database.DefaultSchema)
	v.SetDefault("preferences.query_timeout", DefaultQueryTimeout)
	v.SetDefault("preferences.max_display_rows", DefaultMaxDisplayRows)
	return v
}

// Load reads the configuration from path, or from ~/.dblab/config.yaml when
// path is empty. A missing file yields the defaults. Preferences can be
// overridden with DBLAB_PREFERENCES_* environment variables.
func Load(path string) (*Config, error) {
	v := newViper()

	if path == "" {
		dir, err := Dir()
		if err != nil {
			return nil, fmt.Errorf("config dir: %w", err)
		}
		path = filepath.Join(dir, configFile+"."+configType)
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	normalize(cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	p := &cfg.Preferences
	if p.Theme == "" {
		p.Theme = DefaultTheme
	}
	if strings.TrimSpace(p.DefaultSchema) == "" {
		p.DefaultSchema = database.DefaultSchema
	}
	if p.QueryTimeout <= 0 {
		p.QueryTimeout = DefaultQueryTimeout
	}
	if p.MaxDisplayRows <= 0 {
		p.MaxDisplayRows = DefaultMaxDisplayRows
	}
}

// Save writes the configuration to path, or to ~/.dblab/config.yaml when
// path is empty.
func Save(cfg *Config, path string) error {
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return fmt.Errorf("config dir: %w", err)
		}
		path = filepath.Join(dir, configFile+"."+configType)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.Set("connections", cfg.Connections)
	v.Set("preferences", map[string]any{
		"theme":              cfg.Preferences.Theme,
		"default_connection": cfg.Preferences.DefaultConnection,
		"default_schema":     cfg.Preferences.DefaultSchema,
		"query_timeout":      cfg.Preferences.QueryTimeout.String(),
		"max_display_rows":   cfg.Preferences.MaxDisplayRows,
	})
	if len(cfg.SeedPacks) > 0 {
		v.Set("seed_packs", cfg.SeedPacks)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveConnection adds conn to the configuration at path unless a profile
// with the same name exists, and persists the result.
func SaveConnection(path string, conn Connection) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	if cfg.HasConnection(conn.Name) {
		return nil
	}
	cfg.AddConnection(conn)
	return Save(cfg, path)
}

// DefaultConnection returns the default connection from config, or the first one.
func DefaultConnection(cfg *Config) *Connection {
	if len(cfg.Connections) == 0 {
		return nil
	}
	if name := cfg.Preferences.DefaultConnection; name != "" {
		if c := cfg.FindConnection(name); c != nil {
			return c
		}
	}
	return &cfg.Connections[0]
}

// Dir returns ~/.dblab.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}
