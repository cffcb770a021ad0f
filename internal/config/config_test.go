package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/azax")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test")
	t.Setenv("SETTLEMENT_ADMIN_ID", "11111111-1111-1111-1111-111111111111")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Azax", cfg.AppName)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "https://api.paystack.co", cfg.PaystackBaseURL)
	require.Equal(t, 90*time.Second, cfg.OTPTTL)
	require.Equal(t, 168*time.Hour, cfg.TokenTTL)
	require.Equal(t, "@every 1h", cfg.ReconcileSchedule)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestAddress(t *testing.T) {
	require.Equal(t, ":9000", Config{Port: "9000"}.Address())
	require.Equal(t, ":9000", Config{Port: ":9000"}.Address())
}
