package core

import (
	"context"
	"fmt"
	"maps"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

// Config holds the service settings that may come from a config source. Keys
// are snake_case in every source.
type Config struct {
	ServiceName          string        `koanf:"service_name" mapstructure:"service_name"`
	BaseURL              string        `koanf:"base_url" mapstructure:"base_url"`
	RequestTimeout       time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
	MaxResponseBodyBytes int64         `koanf:"max_response_body_bytes" mapstructure:"max_response_body_bytes"`
	IncludeLeadDetails   bool          `koanf:"include_lead_details" mapstructure:"include_lead_details"`
	OptionsCacheTTL      time.Duration `koanf:"options_cache_ttl" mapstructure:"options_cache_ttl"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName:          "leadtable",
		BaseURL:              DefaultBaseURL,
		RequestTimeout:       30 * time.Second,
		MaxResponseBodyBytes: 10 << 20,
		OptionsCacheTTL:      time.Minute,
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ServiceName, validation.Required.Error("service_name is required")),
		validation.Field(&c.BaseURL, is.URL.Error("base_url must be an absolute URL")),
		validation.Field(&c.RequestTimeout, validation.Min(time.Duration(0)).Error("request_timeout must not be negative")),
		validation.Field(&c.MaxResponseBodyBytes, validation.Min(int64(0)).Error("max_response_body_bytes must not be negative")),
		validation.Field(&c.OptionsCacheTTL, validation.Min(time.Duration(0)).Error("options_cache_ttl must not be negative")),
	)
}

// layer renders c as an options layer. Zero values are dropped unless
// withZero is set so a sparse layer never masks a lower one.
func (c Config) layer(withZero bool) map[string]any {
	values := map[string]any{
		"service_name":            c.ServiceName,
		"base_url":                c.BaseURL,
		"request_timeout":         c.RequestTimeout,
		"max_response_body_bytes": c.MaxResponseBodyBytes,
		"include_lead_details":    c.IncludeLeadDetails,
		"options_cache_ttl":       c.OptionsCacheTTL,
	}
	if withZero {
		return values
	}
	maps.DeleteFunc(values, func(_ string, value any) bool {
		switch typed := value.(type) {
		case string:
			return typed == ""
		case time.Duration:
			return typed <= 0
		case int64:
			return typed <= 0
		case bool:
			return !typed
		}
		return value == nil
	})
	return values
}

type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	out := make(map[string]any, len(l.Values))
	maps.Copy(out, l.Values)
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	var loader RawConfigLoader = StaticRawConfigLoader{}
	if p.Loader != nil {
		loader = p.Loader
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	return buildConfig(raw, defaults)
}

func buildConfig(raw map[string]any, defaults Config) (Config, error) {
	return cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
}

// GoOptionsResolver merges defaults < loaded config < runtime config with
// go-options scopes.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(opts.NewScope("defaults", 0), defaults.layer(true), opts.WithSnapshotID[map[string]any]("defaults")),
		opts.NewLayer(opts.NewScope("config", 10), loaded.layer(false), opts.WithSnapshotID[map[string]any]("config")),
		opts.NewLayer(opts.NewScope("runtime", 20), runtime.layer(false), opts.WithSnapshotID[map[string]any]("runtime")),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	return buildConfig(merged.Value, defaults)
}
