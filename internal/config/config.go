package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port        int `yaml:"port"`
		MetricsPort int `yaml:"metrics_port"`
	} `yaml:"server"`

	Database struct {
		Dialect string `yaml:"dialect"` // "sqlite3" or "postgres"
		DSN     string `yaml:"dsn"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"` // empty means in-memory cache
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Cache struct {
		ProductTTL time.Duration `yaml:"product_ttl"`
		StationTTL time.Duration `yaml:"station_ttl"`
		StatsTTL   time.Duration `yaml:"stats_ttl"`
	} `yaml:"cache"`

	Broker struct {
		URL      string `yaml:"url"` // empty disables AMQP audit publishing
		Exchange string `yaml:"exchange"`
	} `yaml:"broker"`

	LogLevel string `yaml:"log_level"`
	Seed     bool   `yaml:"seed"`
}

// Default returns the configuration used when no file overrides it.
// TTLs are operational tuning, not contracts.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.MetricsPort = 9090
	cfg.Database.Dialect = "sqlite3"
	cfg.Database.DSN = "brigade.db"
	cfg.Cache.ProductTTL = 2 * time.Hour
	cfg.Cache.StationTTL = time.Hour
	cfg.Cache.StatsTTL = 5 * time.Minute
	cfg.Broker.Exchange = "brigade.audit"
	cfg.LogLevel = "info"
	return cfg
}

// Load reads the YAML configuration at path on top of the defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
