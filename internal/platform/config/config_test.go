package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, devSigningKey, cfg.Auth.JWTSigningKey)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Empty(t, cfg.Database.URL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("COLIVING_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092 ,")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("COLIVING_CORS_ORIGINS", "https://app.example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSOrigins)
}

func TestProductionRequiresSigningKey(t *testing.T) {
	t.Setenv("COLIVING_ENV", "production")
	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("JWT_SIGNING_KEY", "s3cret")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoginLockoutDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Auth.LoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LoginWindow)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LoginLockDuration)
}

func TestBootstrapAdminNeedsBothFields(t *testing.T) {
	t.Setenv("COLIVING_BOOTSTRAP_ADMIN_EMAIL", "root@example.com")
	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("COLIVING_BOOTSTRAP_ADMIN_PASSWORD", "correct horse")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", cfg.Auth.BootstrapAdminEmail)
}
