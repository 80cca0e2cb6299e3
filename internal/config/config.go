package config

import (
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
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		// TTL bounds the question-set cache.
		TTL string `yaml:"ttl"`
		// UnlockPolicy is "focus" (default) or "sequential".
		UnlockPolicy string `yaml:"unlock_policy"`
	} `yaml:"quiz"`
	Attempt struct {
		// TTL bounds how long an abandoned attempt stays resumable.
		TTL string `yaml:"ttl"`
	} `yaml:"attempt"`
	Board struct {
		// TTL matches the lifetime of the analyzed document.
		TTL string `yaml:"ttl"`
	} `yaml:"board"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
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
