package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL        string `yaml:"ttl"`
		SessionTTL string `yaml:"session_ttl"`
		FlowID     string `yaml:"flow_id"`
		FlowFile   string `yaml:"flow_file"`
	} `yaml:"quiz"`
	Backend Backend `yaml:"backend"`
	Log     Log     `yaml:"log"`
}

// Backend points at the search/recommend collaborator.
type Backend struct {
	BaseURL       string  `yaml:"base_url"`
	Timeout       string  `yaml:"timeout"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// Log configures the zap logger. File enables a rotated JSON log next to stdout.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a config that runs entirely in memory against a local backend.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Quiz.TTL = "10m"
	cfg.Quiz.SessionTTL = "30m"
	cfg.Backend = Backend{
		BaseURL:       "http://localhost:8000",
		Timeout:       "10s",
		RatePerSecond: 5,
		Burst:         10,
	}
	cfg.Log.Level = "info"
	return cfg
}

// Load reads YAML config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
