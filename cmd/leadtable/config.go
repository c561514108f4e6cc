package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-leadtable/core"
	"gopkg.in/yaml.v3"
)

const envPrefix = "LEADTABLE_"

type fileConfig struct {
	Service     serviceSection     `yaml:"service"`
	Credentials credentialsSection `yaml:"credentials"`
	Server      serverSection      `yaml:"server"`
	Store       storeSection       `yaml:"store"`
	Metrics     metricsSection     `yaml:"metrics"`
}

// serviceSection mirrors core.Config; durations are Go duration strings.
type serviceSection struct {
	ServiceName          string `yaml:"service_name"`
	BaseURL              string `yaml:"base_url"`
	RequestTimeout       string `yaml:"request_timeout"`
	MaxResponseBodyBytes int64  `yaml:"max_response_body_bytes"`
	IncludeLeadDetails   *bool  `yaml:"include_lead_details"`
	OptionsCacheTTL      string `yaml:"options_cache_ttl"`
}

type credentialsSection struct {
	APIKey string `yaml:"api_key"`
	Email  string `yaml:"email"`
}

type serverSection struct {
	Addr         string `yaml:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
	DedupeTTL    string `yaml:"dedupe_ttl"`
}

// storeSection selects where subscription records and inbound claims live:
// memory, sqlite3, postgres or redis.
type storeSection struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

type metricsSection struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Server:  serverSection{Addr: ":8080"},
		Store:   storeSection{Driver: "memory"},
		Metrics: metricsSection{Enabled: true, Path: "/metrics"},
	}
}

// loadFileConfig reads path (optional) then applies LEADTABLE_* environment
// overrides.
func loadFileConfig(path string, lookupEnv func(string) (string, bool)) (fileConfig, error) {
	cfg := defaultFileConfig()
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fileConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if err := applyEnv(&cfg, lookupEnv); err != nil {
		return fileConfig{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *fileConfig, lookupEnv func(string) (string, bool)) error {
	str := func(name string, target *string) {
		if value, ok := lookupEnv(envPrefix + name); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
	str("API_KEY", &cfg.Credentials.APIKey)
	str("EMAIL", &cfg.Credentials.Email)
	str("BASE_URL", &cfg.Service.BaseURL)
	str("REQUEST_TIMEOUT", &cfg.Service.RequestTimeout)
	str("OPTIONS_CACHE_TTL", &cfg.Service.OptionsCacheTTL)
	str("LISTEN_ADDR", &cfg.Server.Addr)
	str("STORE_DRIVER", &cfg.Store.Driver)
	str("STORE_DSN", &cfg.Store.DSN)

	if value, ok := lookupEnv(envPrefix + "INCLUDE_LEAD_DETAILS"); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%sINCLUDE_LEAD_DETAILS: %w", envPrefix, err)
		}
		cfg.Service.IncludeLeadDetails = &parsed
	}
	return nil
}

func (c fileConfig) credentials() core.Credentials {
	return core.Credentials{
		APIKey:  c.Credentials.APIKey,
		Email:   c.Credentials.Email,
		BaseURL: c.Service.BaseURL,
	}
}

func (c fileConfig) dedupeTTL() (time.Duration, error) {
	return parseDuration("server.dedupe_ttl", c.Server.DedupeTTL)
}

// yamlConfigLoader feeds the service section to the core config provider.
type yamlConfigLoader struct {
	section serviceSection
}

func (l yamlConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	raw := map[string]any{}
	s := l.section
	if value := strings.TrimSpace(s.ServiceName); value != "" {
		raw["service_name"] = value
	}
	if value := strings.TrimSpace(s.BaseURL); value != "" {
		raw["base_url"] = value
	}
	if s.MaxResponseBodyBytes != 0 {
		raw["max_response_body_bytes"] = s.MaxResponseBodyBytes
	}
	if s.IncludeLeadDetails != nil {
		raw["include_lead_details"] = *s.IncludeLeadDetails
	}
	for key, value := range map[string]string{
		"request_timeout":   s.RequestTimeout,
		"options_cache_ttl": s.OptionsCacheTTL,
	} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := parseDuration("service."+key, value)
		if err != nil {
			return nil, err
		}
		raw[key] = parsed
	}
	return raw, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, core.InvalidConfigurationError(
			fmt.Sprintf("%s: invalid duration %q", field, value),
			map[string]any{"field": field},
		)
	}
	return parsed, nil
}

var _ core.RawConfigLoader = yamlConfigLoader{}
