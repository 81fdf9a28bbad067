package credflow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigNeedsSecret(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate())

	cfg.JWT.Secret = []byte(strings.Repeat("x", 32))
	require.NoError(t, cfg.Validate())
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown signing method", func(c *Config) { c.JWT.SigningMethod = "rs256" }},
		{"ed25519 without keys", func(c *Config) { c.JWT.SigningMethod = "ed25519" }},
		{"negative leeway", func(c *Config) { c.JWT.Leeway = -time.Second }},
		{"refresh shorter than access", func(c *Config) { c.Tokens.RefreshTTL = time.Minute }},
		{"zero otp ttl", func(c *Config) { c.Tokens.OTPTTL = 0 }},
		{"three digit otp", func(c *Config) { c.Tokens.OTPDigits = 3 }},
		{"zero login attempts", func(c *Config) { c.LoginLimit.MaxAttempts = 0 }},
		{"zero otp lockout", func(c *Config) { c.OTPLimit.Lockout = 0 }},
		{"zero store timeout", func(c *Config) { c.Store.OpTimeout = 0 }},
		{"zero directory timeout", func(c *Config) { c.Directory.Timeout = 0 }},
		{"weak argon2", func(c *Config) { c.Password.Memory = 1024 }},
		{"no notify workers", func(c *Config) { c.Notify.Workers = 0 }},
		{"negative min age", func(c *Config) { c.Registration.MinAge = -1 }},
		{"audit without buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }},
		{"negative audit sink timeout", func(c *Config) { c.Audit.SinkTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestWithConfigCopiesKeyMaterial(t *testing.T) {
	cfg := testConfig()
	b := New().WithConfig(cfg)
	cfg.JWT.Secret[0] = 'z'
	require.Equal(t, byte('s'), b.config.JWT.Secret[0])
}

func TestLoadConfigFromEnv(t *testing.T) {
	secretPath := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(secretPath, []byte(strings.Repeat("f", 32)+"\n"), 0o600))

	t.Setenv("CREDFLOW_JWT_SECRET_FILE", secretPath)
	t.Setenv("CREDFLOW_JWT_ISSUER", "issuer-a")
	t.Setenv("CREDFLOW_ACCESS_TTL", "10m")
	t.Setenv("CREDFLOW_LOGIN_LIMIT_MAX_ATTEMPTS", "3")
	t.Setenv("CREDFLOW_OTP_LIMIT_LOCKOUT", "30m")
	t.Setenv("CREDFLOW_REDIS_ADDR", "redis:6380")
	t.Setenv("CREDFLOW_AUDIT_ENABLED", "true")
	t.Setenv("CREDFLOW_MIN_AGE", "16")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, []byte(strings.Repeat("f", 32)), cfg.JWT.Secret)
	require.Equal(t, "issuer-a", cfg.JWT.Issuer)
	require.Equal(t, 10*time.Minute, cfg.Tokens.AccessTTL)
	require.Equal(t, 3, cfg.LoginLimit.MaxAttempts)
	require.Equal(t, 15*time.Minute, cfg.LoginLimit.Lockout)
	require.Equal(t, 30*time.Minute, cfg.OTPLimit.Lockout)
	require.Equal(t, "redis:6380", cfg.Store.Addr)
	require.True(t, cfg.Audit.Enabled)
	require.Equal(t, 16, cfg.Registration.MinAge)
	require.Equal(t, 7*24*time.Hour, cfg.Tokens.RefreshTTL)
}

func TestLoadConfigFromEnvInlineSecret(t *testing.T) {
	t.Setenv("CREDFLOW_JWT_SECRET", strings.Repeat("i", 32))

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, []byte(strings.Repeat("i", 32)), cfg.JWT.Secret)
}

func TestLoadConfigFromEnvBadDuration(t *testing.T) {
	t.Setenv("CREDFLOW_ACCESS_TTL", "soon")

	_, err := LoadConfigFromEnv()
	require.Error(t, err)
}
