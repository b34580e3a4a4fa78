// Package config loads gateway configuration from the environment, with an
// optional YAML file for deployment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config holds all process-wide gateway settings. Values are read once at
// start and must never appear in logs or response bodies.
type Config struct {
	ListenAddr string `env:"GATEWAY_ADDR,default=:8080"`

	// Upstream identity-and-data backend.
	SupabaseURL string `env:"SUPABASE_URL"`
	ServiceKey  string `env:"SUPABASE_SERVICE_KEY"`
	AnonKey     string `env:"SUPABASE_ANON_KEY"`

	// Optional: enables local bearer verification without an introspection
	// round trip.
	JWTSecret string `env:"SUPABASE_JWT_SECRET"`

	// Signing secret for the day-scoped proof token.
	ProofTokenSecret string `env:"PROOF_TOKEN_SECRET"`

	CORSOrigins string `env:"CORS_ALLOWED_ORIGINS"`

	// Optional per-client throttle; zero disables it.
	RateLimitRPS   int `env:"GATEWAY_RATE_LIMIT_RPS,default=0"`
	RateLimitBurst int `env:"GATEWAY_RATE_LIMIT_BURST,default=20"`
}

// Load decodes the configuration from the environment and applies the
// optional file overrides.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if file := LoadFileConfigOrDefault(); file != nil {
		if file.ListenAddr != "" {
			cfg.ListenAddr = file.ListenAddr
		}
		if len(file.CORSOrigins) > 0 {
			cfg.CORSOrigins = strings.Join(file.CORSOrigins, ",")
		}
	}

	return &cfg, nil
}

// AllowedOrigins returns the CORS origin list, defaulting to the local
// development hosts.
func (c *Config) AllowedOrigins() []string {
	raw := c.CORSOrigins
	if strings.TrimSpace(raw) == "" {
		raw = "http://localhost:3000,http://localhost:5173"
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// FileConfig holds the subset of settings that may come from gateway.yaml.
type FileConfig struct {
	ListenAddr  string   `yaml:"listen_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// LoadFileConfig loads the YAML override file from a specific path.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gateway config: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse gateway config: %w", err)
	}
	return &cfg, nil
}

// LoadFileConfigOrDefault loads the override file named by
// GATEWAY_CONFIG_FILE, falling back to config/gateway.yaml. Absence of the
// file is not an error; the environment values stand.
func LoadFileConfigOrDefault() *FileConfig {
	path := os.Getenv("GATEWAY_CONFIG_FILE")
	if path == "" {
		path = filepath.Join("config", "gateway.yaml")
	}
	cfg, err := LoadFileConfig(path)
	if err != nil {
		return nil
	}
	return cfg
}
