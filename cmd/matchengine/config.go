package main

import (
	"fmt"

	"github.com/jamhan/predictmarket/logging"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config ties together the top level settings the matchengine binary
// needs. Defaults are set before the config file is read so viper can
// merge a partial file over a complete default tree, the same sequence
// the source's top level Config.ReadConfigFromFile follows.
type Config struct {
	LogLevel string   `mapstructure:"log-level"`
	Markets  []string `mapstructure:"markets"`
}

// DefaultConfig returns the settings used when no config file is found.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Markets:  []string{"WILL-IT-RAIN-TOMORROW"},
	}
}

// LoadConfig reads matchengine.{yaml,toml,json} from path, if present,
// over the defaults. An empty path only applies defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("markets", cfg.Markets)

	if path == "" {
		return cfg, nil
	}

	v.SetConfigName("matchengine")
	v.AddConfigPath(path)
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); notFound {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "error reading matchengine config from file")
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode matchengine config into struct")
	}
	return cfg, nil
}

func levelFromString(s string) logging.Level {
	switch s {
	case "debug":
		return logging.DebugLevel
	case "warn":
		return logging.WarnLevel
	case "error":
		return logging.ErrorLevel
	default:
		return logging.InfoLevel
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("log-level=%s markets=%v", c.LogLevel, c.Markets)
}
