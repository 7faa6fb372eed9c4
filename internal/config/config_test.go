package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROMATA_BACKEND_URL", "http://backend:3000")
	t.Setenv("PROMATA_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 3*time.Second, cfg.BackendTimeout)
	require.Equal(t, 10*time.Second, cfg.BackendListTimeout)
	require.Equal(t, 1, cfg.BackendRetries)
	require.Equal(t, 24*time.Hour, cfg.AddressCacheTTL)
	require.Equal(t, "promata.cache.invalidate", cfg.NATSSubject)
}

func TestLoadClampsRetries(t *testing.T) {
	t.Setenv("PROMATA_BACKEND_URL", "http://backend:3000")
	t.Setenv("PROMATA_JWT_SECRET", "secret")
	t.Setenv("PROMATA_BACKEND_RETRIES", "7")
	t.Setenv("PROMATA_APP_PORT", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 2, cfg.BackendRetries)
	require.Equal(t, ":9090", cfg.HTTPAddress())
}

func TestLoadRequiresBackendAndSecret(t *testing.T) {
	t.Setenv("PROMATA_BACKEND_URL", "")
	t.Setenv("PROMATA_JWT_SECRET", "secret")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("PROMATA_BACKEND_URL", "http://backend")
	t.Setenv("PROMATA_JWT_SECRET", "")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("PROMATA_BACKEND_URL", "http://backend")
	t.Setenv("PROMATA_JWT_SECRET", "secret")
	t.Setenv("PROMATA_CACHE_LIST_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}
