// Package config loads settings for the order book binary.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	MarketID      string `mapstructure:"market_id"`
	TickSize      string `mapstructure:"tick_size"`
	DepthLimit    int    `mapstructure:"depth_limit"`
	PublishBuffer int64  `mapstructure:"publish_buffer"` // ring buffer capacity, power of 2

	Log struct {
		Level      string `mapstructure:"level"`
		Production bool   `mapstructure:"production"`
	} `mapstructure:"log"`
}

// Load reads defaults, then the YAML file at path (if any), then ORDERBOOK_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("market_id", "BTC-USDT")
	v.SetDefault("tick_size", "0.01")
	v.SetDefault("depth_limit", 10)
	v.SetDefault("publish_buffer", 1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.production", false)

	v.SetEnvPrefix("ORDERBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MarketID == "" {
		return fmt.Errorf("market_id is required")
	}
	if c.PublishBuffer <= 0 || c.PublishBuffer&(c.PublishBuffer-1) != 0 {
		return fmt.Errorf("publish_buffer must be a power of 2, got %d", c.PublishBuffer)
	}
	return nil
}
