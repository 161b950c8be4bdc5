package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// legacyEnvAliases maps the bare environment names the original deployment
// exported to their config keys. They win over every other layer so an
// existing deployment keeps working unchanged.
var legacyEnvAliases = map[string]string{
	"PIPEDRIVE_API_KEY":    "pipedrive_api_key",
	"LEAD_SCORE_FIELD_KEY": "lead_score_field_key",
	"WEBHOOK_USER":         "webhook_user",
	"WEBHOOK_PASSWORD":     "webhook_password",
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if LEADSCORE_CONFIG is set
//  3. env (prefix LEADSCORE_)
//  4. legacy bare env names (PIPEDRIVE_API_KEY, ...)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("LEADSCORE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: LEADSCORE_ADDR, LEADSCORE_THRESHOLD_HIGH, ...
	// Map env keys like LEADSCORE_THRESHOLD_HIGH -> threshold_high (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("LEADSCORE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "leadscore_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	for name, key := range legacyEnvAliases {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
			}
		}
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate enforces the invariants the rest of the process assumes.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ModelPath == "":
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	case c.ColumnsPath == "":
		return fmt.Errorf("%w: columns_path must not be empty", ErrInvalidConfig)
	case c.ThresholdMedium < 0 || c.ThresholdHigh > 1 || c.ThresholdMedium >= c.ThresholdHigh:
		return fmt.Errorf("%w: thresholds must satisfy 0 <= medium < high <= 1", ErrInvalidConfig)
	case c.TargetPipelineID <= 0:
		return fmt.Errorf("%w: target_pipeline_id must be positive", ErrInvalidConfig)
	case c.WritebackTimeoutMS <= 0:
		return fmt.Errorf("%w: writeback_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
