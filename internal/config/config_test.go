package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	settings := Default()
	require.NoError(t, settings.Validate())
	require.Equal(t, 15*time.Second, settings.Timeout())
	require.Equal(t, 1500*time.Millisecond, settings.MinDelay())
	require.Equal(t, 3500*time.Millisecond, settings.MaxDelay())
	require.Equal(t, 24*time.Hour, settings.Interval())
	require.Len(t, settings.UserAgents, 3)
}

func TestApplyEnv(t *testing.T) {
	settings, err := ApplyEnv(Default(), lookupFrom(map[string]string{
		"PRICEPULSE_DATABASE_URL":      "postgres://localhost/pricepulse",
		"PRICEPULSE_REQUEST_TIMEOUT":   "5",
		"PRICEPULSE_MIN_DELAY_SECONDS": "0",
		"PRICEPULSE_MAX_DELAY_SECONDS": "0.5",
		"PRICEPULSE_USER_AGENTS":       "ua-one, ua-two,",
		"PRICEPULSE_FETCH_INTERVAL":    "6h",
		"PRICEPULSE_FETCH_CONCURRENCY": "4",
		"PRICEPULSE_HTTP_ADDR":         "127.0.0.1:9000",
		"PRICEPULSE_PROMETHEUS":        "false",
		"UNRELATED":                    "x",
	}))
	require.NoError(t, err)
	require.Equal(t, "postgres://localhost/pricepulse", settings.DatabaseUrl)
	require.Equal(t, 5*time.Second, settings.Timeout())
	require.Equal(t, time.Duration(0), settings.MinDelay())
	require.Equal(t, []string{"ua-one", "ua-two"}, settings.UserAgents)
	require.Equal(t, 6*time.Hour, settings.Interval())
	require.Equal(t, 4, settings.FetchConcurrency)
	require.Equal(t, "127.0.0.1:9000", settings.HttpAddr)
	require.False(t, settings.Telemetry.Prometheus)
}

func TestApplyEnvJsonList(t *testing.T) {
	settings, err := ApplyEnv(Default(), lookupFrom(map[string]string{
		"PRICEPULSE_USER_AGENTS": `["a, with comma", "b"]`,
	}))
	require.NoError(t, err)
	require.Equal(t, []string{"a, with comma", "b"}, settings.UserAgents)
}

func TestApplyEnvInvalidNumbers(t *testing.T) {
	_, err := ApplyEnv(Default(), lookupFrom(map[string]string{
		"PRICEPULSE_REQUEST_TIMEOUT":   "soon",
		"PRICEPULSE_FETCH_CONCURRENCY": "many",
	}))
	require.ErrorContains(t, err, "PRICEPULSE_REQUEST_TIMEOUT")
	require.ErrorContains(t, err, "PRICEPULSE_FETCH_CONCURRENCY")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(s *Settings)
		errMsg string
	}{
		{"timeout", func(s *Settings) { s.RequestTimeout = 0 }, "request_timeout"},
		{"negative delay", func(s *Settings) { s.MinDelaySeconds = -1 }, "min_delay_seconds must not be negative"},
		{"min over max", func(s *Settings) { s.MinDelaySeconds = 5 }, "must not exceed"},
		{"no user agents", func(s *Settings) { s.UserAgents = nil }, "user_agents"},
		{"bad interval", func(s *Settings) { s.FetchInterval = "daily" }, "fetch_interval"},
		{"zero interval", func(s *Settings) { s.FetchInterval = "0s" }, "fetch_interval must be positive"},
		{"concurrency", func(s *Settings) { s.FetchConcurrency = 0 }, "fetch_concurrency"},
		{"database url", func(s *Settings) { s.DatabaseUrl = " " }, "database_url"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			settings := Default()
			c.mutate(&settings)
			require.ErrorContains(t, settings.Validate(), c.errMsg)
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		database_url: "sqlite://from-file.db",
		request_timeout: 20,
		fetch_interval: "12h",
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		request_timeout: 25,
	}`), 0644))
	t.Setenv("PRICEPULSE_FETCH_INTERVAL", "1h")

	settings, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sqlite://from-file.db", settings.DatabaseUrl)
	require.Equal(t, 25*time.Second, settings.Timeout())
	require.Equal(t, time.Hour, settings.Interval())
	require.Equal(t, 1, settings.FetchConcurrency)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("PRICEPULSE_MIN_DELAY_SECONDS", "10")
	_, err := Load("")
	require.ErrorContains(t, err, "invalid config")
}
