package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Redis      RedisConfig      `yaml:"redis"`
	Engine     EngineConfig     `yaml:"engine"`
	Cache      CacheConfig      `yaml:"cache"`
}

type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

type ClickHouseConfig struct {
	Addr         string `yaml:"addr"`
	Database     string `yaml:"database"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type EngineConfig struct {
	Hotspot    HotspotConfig    `yaml:"hotspot"`
	Experiment ExperimentConfig `yaml:"experiment"`
	Query      QueryConfig      `yaml:"query"`
}

type HotspotConfig struct {
	RadiusPx float64 `yaml:"radius_px"`
}

type ExperimentConfig struct {
	ConfidenceLevel float64 `yaml:"confidence_level"`
}

type QueryConfig struct {
	MaxRows int `yaml:"max_rows"`
}

type CacheConfig struct {
	HeatmapTTL          time.Duration `yaml:"heatmap_ttl"`
	ExperimentConfigTTL time.Duration `yaml:"experiment_config_ttl"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8090
	}
	if cfg.ClickHouse.MaxOpenConns == 0 {
		cfg.ClickHouse.MaxOpenConns = 10
	}
	if cfg.ClickHouse.MaxIdleConns == 0 {
		cfg.ClickHouse.MaxIdleConns = 5
	}
	if cfg.Engine.Hotspot.RadiusPx == 0 {
		cfg.Engine.Hotspot.RadiusPx = 50
	}
	if cfg.Engine.Experiment.ConfidenceLevel == 0 {
		cfg.Engine.Experiment.ConfidenceLevel = 0.95
	}
	if cfg.Engine.Query.MaxRows == 0 {
		cfg.Engine.Query.MaxRows = 50000
	}
	if cfg.Cache.HeatmapTTL == 0 {
		cfg.Cache.HeatmapTTL = 5 * time.Minute
	}
	if cfg.Cache.ExperimentConfigTTL == 0 {
		cfg.Cache.ExperimentConfigTTL = 60 * time.Second
	}

	return &cfg, nil
}
