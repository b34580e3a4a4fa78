package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("GATEWAY_ADDR", ":9090")
	t.Setenv("SUPABASE_URL", "https://backend.example.com")
	t.Setenv("SUPABASE_SERVICE_KEY", "service-key")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
	t.Setenv("SUPABASE_JWT_SECRET", "jwt-secret")
	t.Setenv("PROOF_TOKEN_SECRET", "proof-secret")
	t.Setenv("GATEWAY_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "https://backend.example.com", cfg.SupabaseURL)
	assert.Equal(t, "service-key", cfg.ServiceKey)
	assert.Equal(t, "anon-key", cfg.AnonKey)
	assert.Equal(t, "jwt-secret", cfg.JWTSecret)
	assert.Equal(t, "proof-secret", cfg.ProofTokenSecret)
}

func TestLoadDefaultsListenAddr(t *testing.T) {
	t.Setenv("GATEWAY_ADDR", "")
	os.Unsetenv("GATEWAY_ADDR")
	t.Setenv("GATEWAY_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestFileConfigOverridesEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen_addr: \":7070\"\ncors_origins:\n  - https://admin.example.com\n"), 0o600))

	t.Setenv("GATEWAY_ADDR", ":9090")
	t.Setenv("GATEWAY_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.AllowedOrigins())
}

func TestLoadFileConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: [unterminated"), 0o600))

	_, err := LoadFileConfig(path)
	assert.Error(t, err)
}

func TestAllowedOriginsDefaultsToLocalhost(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins())
}

func TestAllowedOriginsTrimsAndSkipsEmpty(t *testing.T) {
	cfg := &Config{CORSOrigins: " https://a.example.com , ,https://b.example.com "}
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins())
}
