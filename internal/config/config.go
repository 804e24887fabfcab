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
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Bank struct {
		TTL string `yaml:"ttl"`
	} `yaml:"bank"`
	Exam struct {
		MinYears int `yaml:"min_years"`
		MaxYears int `yaml:"max_years"`
	} `yaml:"exam"`
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

// YearRange returns the configured bounds on how many years one exam mixes,
// defaulting to the 3..6 window.
func (c Config) YearRange() (int, int) {
	minYears, maxYears := c.Exam.MinYears, c.Exam.MaxYears
	if minYears <= 0 {
		minYears = 3
	}
	if maxYears <= 0 {
		maxYears = 6
	}
	if maxYears < minYears {
		maxYears = minYears
	}
	return minYears, maxYears
}
