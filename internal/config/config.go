package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectID string
	LogLevel  string
	Port      string

	// provider credentials, keyed by provider name
	FinnhubKey      string
	AlphaVantageKey string
	TwelveDataKey   string
	ProviderSecrets bool

	CacheTTL            time.Duration
	FetchTimeout        time.Duration
	ProviderMinInterval time.Duration
	RefreshConcurrency  int
	RelayURL            string
	EnvelopeRelayURL    string
	RateFlattening      bool
	Timezone            string
	AllowPrivateHosts   bool
	PollIdleTimeout     time.Duration
}

// New reads the configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment variables
// win over it.
func New() *Config {
	_ = godotenv.Load()

	return &Config{
		ProjectID:           os.Getenv("PROJECTID"),
		LogLevel:            os.Getenv("LOGLEVEL"),
		Port:                getString("PORT", "8080"),
		FinnhubKey:          os.Getenv("FINNHUB_API_KEY"),
		AlphaVantageKey:     os.Getenv("ALPHAVANTAGE_API_KEY"),
		TwelveDataKey:       os.Getenv("TWELVEDATA_API_KEY"),
		ProviderSecrets:     getBool("PROVIDER_SECRETS", false),
		CacheTTL:            getDuration("CACHE_TTL", 60*time.Second),
		FetchTimeout:        getDuration("FETCH_TIMEOUT", 8*time.Second),
		ProviderMinInterval: getDuration("PROVIDER_MIN_INTERVAL", 0),
		RefreshConcurrency:  getInt("REFRESH_CONCURRENCY", 4),
		RelayURL:            getString("RELAY_URL", "https://corsproxy.io/?"),
		EnvelopeRelayURL:    getString("ENVELOPE_RELAY_URL", "https://api.allorigins.win/get?url="),
		RateFlattening:      getBool("RATE_FLATTENING", true),
		Timezone:            os.Getenv("TIMEZONE"),
		AllowPrivateHosts:   getBool("ALLOW_PRIVATE_HOSTS", false),
		PollIdleTimeout:     getDuration("POLL_IDLE_TIMEOUT", 10*time.Minute),
	}
}

// ProviderKeys returns the configured credentials by provider name.
func (c *Config) ProviderKeys() map[string]string {
	return map[string]string{
		"finnhub":      c.FinnhubKey,
		"alphavantage": c.AlphaVantageKey,
		"twelvedata":   c.TwelveDataKey,
	}
}

// Location resolves Timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ---- Helpers ----

func getString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return b
}
