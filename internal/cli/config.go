package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigName is the file popcornctl looks for in the working
// directory and in ~/.popcornctl.
const DefaultConfigName = "popcornctl.yaml"

// Config is the popcornctl configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig points the client at an API instance.
type ServerConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// LoggingConfig controls the stderr logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// newViper returns a viper instance with defaults and POPCORN_* env
// overrides (POPCORN_SERVER_URL, POPCORN_SERVER_TOKEN, ...).
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("server.url", "http://localhost:8080")
	v.SetDefault("server.token", "")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("POPCORN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads path, or popcornctl.yaml from the usual locations when
// path is empty.  A missing default file is not an error.
func loadConfig(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("popcornctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".popcornctl"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}
	return nil
}

// saveToken stores the session token in the config file in use, or in
// ./popcornctl.yaml when none was read.
func saveToken(v *viper.Viper, token string) (string, error) {
	path := v.ConfigFileUsed()
	if path == "" {
		path = DefaultConfigName
	}
	v.Set("server.token", token)
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}
	return path, nil
}
