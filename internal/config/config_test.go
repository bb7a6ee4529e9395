package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, "https://go.qttechnologies.com", cfg.PortalBaseURL)
	require.Equal(t, 30*time.Second, cfg.PortalTimeout)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 30000, cfg.PollIntervalMs)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("QT_USERNAME", "ops@example.com")
	t.Setenv("QT_PASSWORD", "hunter2")
	t.Setenv("QT_COMPANY_LOCATION_ID", "loc-1")
	t.Setenv("QT_USER_ID", "user-1")
	t.Setenv("VAPID_PUBLIC_KEY", "pub")
	t.Setenv("VAPID_PRIVATE_KEY", "priv")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.True(t, cfg.HasPortalCredentials())
	require.True(t, cfg.HasVAPIDKeys())
}

func TestMissingCredentialsDetected(t *testing.T) {
	t.Setenv("QT_USERNAME", "ops@example.com")
	t.Setenv("QT_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.HasPortalCredentials())
	require.False(t, cfg.HasVAPIDKeys())
}
