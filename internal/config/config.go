// Package config loads server configuration from an optional YAML file with
// environment overrides on top.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`
	DataDir         string        `yaml:"data_dir"`
	Kubeconfig      string        `yaml:"kubeconfig"`
	Namespace       string        `yaml:"namespace"`
	DefaultTTL      time.Duration `yaml:"default_ttl"`
	ReapInterval    time.Duration `yaml:"reap_interval"`
	ReaperToken     string        `yaml:"reaper_token"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// APIKeys seeds the credential table at startup, one "owner:token"
	// entry per user.
	APIKeys []string `yaml:"api_keys"`
}

func defaults() Config {
	return Config{
		ListenAddr:      ":8080",
		DataDir:         "./data",
		Namespace:       "boxfleet",
		DefaultTTL:      4 * time.Hour,
		ReapInterval:    30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), then applies BOXFLEET_* environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.ListenAddr, "BOXFLEET_LISTEN_ADDR")
	setString(&cfg.DataDir, "BOXFLEET_DATA_DIR")
	setString(&cfg.Kubeconfig, "BOXFLEET_KUBECONFIG")
	setString(&cfg.Namespace, "BOXFLEET_NAMESPACE")
	setString(&cfg.ReaperToken, "BOXFLEET_REAPER_TOKEN")
	setDuration(&cfg.DefaultTTL, "BOXFLEET_DEFAULT_TTL")
	setDuration(&cfg.ReapInterval, "BOXFLEET_REAP_INTERVAL")
	setDuration(&cfg.ShutdownTimeout, "BOXFLEET_SHUTDOWN_TIMEOUT")

	if v := strings.TrimSpace(os.Getenv("BOXFLEET_API_KEYS")); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}

	// Fall back to the ambient kubeconfig when nothing else is set.
	if cfg.Kubeconfig == "" {
		cfg.Kubeconfig = strings.TrimSpace(os.Getenv("KUBECONFIG"))
	}
}

// Credentials parses APIKeys into owner/token pairs, skipping malformed
// entries.
func (c Config) Credentials() map[string]string {
	creds := make(map[string]string, len(c.APIKeys))
	for _, entry := range c.APIKeys {
		owner, token, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || owner == "" || token == "" {
			continue
		}
		creds[owner] = token
	}
	return creds
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		*dst = d
	}
}
