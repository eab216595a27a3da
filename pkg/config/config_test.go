package config

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")
	for _, key := range []string{"HTTP_PORT", "DB_LOCK_TIMEOUT", "STORAGE_DRIVER", "REDIS_ADDR", "KAFKA_BROKERS", "TRUSTED_PROXIES"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.Postgres.LockTimeout)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.NotEmpty(t, cfg.JWT.Secret)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("DB_LOCK_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 750*time.Millisecond, cfg.Postgres.LockTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestFromEnvRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mysql")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.10, ::1")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.10/32"),
		netip.MustParsePrefix("::1/128"),
	}, cfg.Server.TrustedProxies)

	t.Setenv("TRUSTED_PROXIES", "not-an-ip")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "TRUSTED_PROXIES")
}
