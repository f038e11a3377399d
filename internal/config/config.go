// Package config loads server settings from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Dedup    DedupConfig
	Log      LogConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host          string
	Port          int
	AllowedGroups []string `mapstructure:"allowed_groups"`
}

// Addr returns the host:port the server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// DedupConfig tunes duplicate-message suppression.
type DedupConfig struct {
	Window time.Duration
	Size   int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration from file and env. Env var overrides use prefix
// BETV2_, e.g. BETV2_SERVER_PORT=9090.
func Load(path string) (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_groups", []string{})
	v.SetDefault("database.path", "bets.db")
	v.SetDefault("dedup.window", "10m")
	v.SetDefault("dedup.size", 2048)
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BETV2")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	if err := v.ReadInConfig(); err != nil {
		if path != "" {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Dedup.Window <= 0 {
		return Config{}, fmt.Errorf("dedup.window must be positive, got %s", c.Dedup.Window)
	}
	return c, nil
}
