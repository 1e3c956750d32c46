package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kylycht/ledger/engine"
	"github.com/kylycht/ledger/model"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	sourceStatic = "static"
	sourceDB     = "db"
	sourceForex  = "forex"
)

type Config struct {
	HTTPPort string `yaml:"http_port"`
	LogLevel string `yaml:"log_level"`

	Workers        int                `yaml:"workers"`
	Base           string             `yaml:"base"`
	RateSource     string             `yaml:"rate_source"` // static, db or forex
	Rates          map[string]float64 `yaml:"rates"`       // static seed, relative to Base
	TickInterval   time.Duration      `yaml:"tick_interval"`
	UpdaterTimeout time.Duration      `yaml:"updater_timeout"`
	DrainTimeout   time.Duration      `yaml:"drain_timeout"`

	DBUsername     string `yaml:"db_username"`
	DBPassword     string `yaml:"db_password"`
	DBPort         string `yaml:"db_port"`
	DBHost         string `yaml:"db_host"`
	DBName         string `yaml:"db_name"`
	ExchangeAPIKey string `yaml:"exchange_api_key"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() Config {
	cfg := Config{}
	cfg.defaults()
	return cfg
}

// LoadConfig reads a yaml configuration file and applies defaults
func LoadConfig(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read configuration file: %w", err)
	}

	cfg := Config{}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to parse configuration file: %w", err)
	}

	cfg.defaults()
	return cfg, cfg.validate()
}

func (c *Config) defaults() {
	if c.HTTPPort == "" {
		c.HTTPPort = ":3000"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Base == "" {
		c.Base = model.DefaultBase
	}
	c.Base = strings.ToUpper(c.Base)
	if c.RateSource == "" {
		c.RateSource = sourceStatic
	}
	if len(c.Rates) == 0 {
		c.Rates = make(map[string]float64)
		for _, e := range model.DefaultRates() {
			c.Rates[e.Currency] = e.Rate
		}
	}
	if c.TickInterval <= 0 {
		c.TickInterval = engine.DefaultTickInterval
	}
	if c.UpdaterTimeout <= 0 {
		c.UpdaterTimeout = engine.DefaultUpdaterTimeout
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = engine.DefaultDrainTimeout
	}
}

func (c *Config) validate() error {
	switch c.RateSource {
	case sourceStatic, sourceDB, sourceForex:
	default:
		return fmt.Errorf("unknown rate_source %q", c.RateSource)
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	if c.RateSource == sourceForex && c.ExchangeAPIKey == "" {
		return fmt.Errorf("rate_source %s requires exchange_api_key", sourceForex)
	}

	return nil
}

// SeedRates returns the static rates sorted by currency
func (c Config) SeedRates() []model.RateEntry {
	entries := make([]model.RateEntry, 0, len(c.Rates)+1)
	hasBase := false

	for code, rate := range c.Rates {
		code = strings.ToUpper(code)
		if code == c.Base {
			hasBase = true
			rate = 1
		}
		entries = append(entries, model.RateEntry{Currency: code, Rate: rate})
	}

	if !hasBase {
		entries = append(entries, model.RateEntry{Currency: c.Base, Rate: 1})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Currency < entries[j].Currency })
	return entries
}

// Targets returns the non-base currencies named in Rates
func (c Config) Targets() []string {
	var targets []string
	for _, e := range c.SeedRates() {
		if e.Currency != c.Base {
			targets = append(targets, e.Currency)
		}
	}
	return targets
}
