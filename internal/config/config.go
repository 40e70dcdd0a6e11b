package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"quiz-engine/internal/domain"

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
		TTL     string `yaml:"ttl"`
		File    string `yaml:"file"`
		Default string `yaml:"default"`
	} `yaml:"quiz"`
	Session struct {
		IdleTTL       string `yaml:"idleTTL"`
		PruneSchedule string `yaml:"pruneSchedule"`
	} `yaml:"session"`
	Policy   PolicyConfig `yaml:"policy"`
	Feedback struct {
		PopupDuration string `yaml:"popupDuration"`
	} `yaml:"feedback"`
	Log struct {
		Development bool `yaml:"development"`
	} `yaml:"log"`
}

// PolicyConfig selects a named preset and optionally overrides its fields.
type PolicyConfig struct {
	Preset              string `yaml:"preset"`
	AllowImmediateRetry *bool  `yaml:"allowImmediateRetry"`
	HintOnIncorrect     *bool  `yaml:"hintOnIncorrect"`
	RetryDelay          string `yaml:"retryDelay"`
}

// Load reads YAML config from path. A missing file yields the zero config.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Resolve turns the preset and overrides into a domain.Policy.
func (p PolicyConfig) Resolve() (domain.Policy, error) {
	policy, err := domain.PolicyPreset(p.Preset)
	if err != nil {
		return domain.Policy{}, err
	}
	if p.AllowImmediateRetry != nil {
		policy.AllowImmediateRetry = *p.AllowImmediateRetry
	}
	if p.HintOnIncorrect != nil {
		policy.HintOnIncorrect = *p.HintOnIncorrect
	}
	if p.RetryDelay != "" {
		d, err := time.ParseDuration(p.RetryDelay)
		if err != nil {
			return domain.Policy{}, err
		}
		policy.RetryDelay = d
	}
	return policy, nil
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
