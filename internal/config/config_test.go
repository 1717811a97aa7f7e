package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	for _, k := range []string{"CACHE_TTL", "FETCH_TIMEOUT", "PROVIDER_MIN_INTERVAL", "REFRESH_CONCURRENCY", "PROVIDER_SECRETS", "RATE_FLATTENING", "ALLOW_PRIVATE_HOSTS", "POLL_IDLE_TIMEOUT"} {
		t.Setenv(k, "")
	}

	cfg := New()
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, 8*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Duration(0), cfg.ProviderMinInterval)
	assert.Equal(t, 4, cfg.RefreshConcurrency)
	assert.False(t, cfg.ProviderSecrets)
	assert.True(t, cfg.RateFlattening)
	assert.False(t, cfg.AllowPrivateHosts)
	assert.Equal(t, 10*time.Minute, cfg.PollIdleTimeout)
}

func TestNewOverrides(t *testing.T) {
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("PROVIDER_MIN_INTERVAL", "1500ms")
	t.Setenv("REFRESH_CONCURRENCY", "8")
	t.Setenv("PROVIDER_SECRETS", "true")
	t.Setenv("RELAY_URL", "")
	t.Setenv("FINNHUB_API_KEY", "fh")
	t.Setenv("ALLOW_PRIVATE_HOSTS", "true")
	t.Setenv("POLL_IDLE_TIMEOUT", "90s")

	cfg := New()
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.ProviderMinInterval)
	assert.Equal(t, 8, cfg.RefreshConcurrency)
	assert.True(t, cfg.ProviderSecrets)
	assert.Empty(t, cfg.RelayURL, "an explicitly empty relay disables it")
	assert.Equal(t, "fh", cfg.ProviderKeys()["finnhub"])
	assert.True(t, cfg.AllowPrivateHosts)
	assert.Equal(t, 90*time.Second, cfg.PollIdleTimeout)
}

func TestNewIgnoresInvalidValues(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("REFRESH_CONCURRENCY", "-1")

	cfg := New()
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, 4, cfg.RefreshConcurrency)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.Local, (&Config{}).Location())
	assert.Equal(t, time.Local, (&Config{Timezone: "Not/AZone"}).Location())
	assert.Equal(t, "UTC", (&Config{Timezone: "UTC"}).Location().String())
}
