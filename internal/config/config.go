// Package config loads the settings of the pricepulse binaries.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pricepulse-backend/internal/components/configutil"
	"pricepulse-backend/internal/components/telemetry"
)

const EnvPrefix = "PRICEPULSE_"

// Settings is the configuration shared by the server and the cli.
type Settings struct {
	DatabaseUrl string `json:"database_url"`
	// RequestTimeout is in seconds.
	RequestTimeout   float64  `json:"request_timeout"`
	MinDelaySeconds  float64  `json:"min_delay_seconds"`
	MaxDelaySeconds  float64  `json:"max_delay_seconds"`
	UserAgents       []string `json:"user_agents"`
	FetchInterval    string   `json:"fetch_interval"`
	FetchConcurrency int      `json:"fetch_concurrency"`
	HttpAddr         string   `json:"http_addr"`

	Telemetry telemetry.Config `json:"telemetry"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		DatabaseUrl:     "sqlite://./pricepulse.db",
		RequestTimeout:  15,
		MinDelaySeconds: 1.5,
		MaxDelaySeconds: 3.5,
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_2) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.3 Safari/605.1.15",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0 Safari/537.36",
		},
		FetchInterval:    "24h",
		FetchConcurrency: 1,
		HttpAddr:         "0.0.0.0:8000",
		Telemetry: telemetry.Config{
			Prometheus: true,
		},
	}
}

func (s Settings) Timeout() time.Duration {
	return time.Duration(s.RequestTimeout * float64(time.Second))
}

func (s Settings) MinDelay() time.Duration {
	return time.Duration(s.MinDelaySeconds * float64(time.Second))
}

func (s Settings) MaxDelay() time.Duration {
	return time.Duration(s.MaxDelaySeconds * float64(time.Second))
}

// Interval returns the parsed fetch interval, Validate guarantees it parses.
func (s Settings) Interval() time.Duration {
	d, _ := time.ParseDuration(s.FetchInterval)
	return d
}

// Validate returns every problem with the settings joined into one error.
func (s Settings) Validate() error {
	var errs []error
	if strings.TrimSpace(s.DatabaseUrl) == "" {
		errs = append(errs, errors.New("database_url must not be empty"))
	}
	if s.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %v", s.RequestTimeout))
	}
	if s.MinDelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("min_delay_seconds must not be negative, got %v", s.MinDelaySeconds))
	}
	if s.MaxDelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("max_delay_seconds must not be negative, got %v", s.MaxDelaySeconds))
	}
	if s.MinDelaySeconds > s.MaxDelaySeconds {
		errs = append(errs, fmt.Errorf(
			"min_delay_seconds (%v) must not exceed max_delay_seconds (%v)",
			s.MinDelaySeconds, s.MaxDelaySeconds,
		))
	}
	if len(s.UserAgents) == 0 {
		errs = append(errs, errors.New("user_agents must not be empty"))
	}
	interval, err := time.ParseDuration(s.FetchInterval)
	if err != nil {
		errs = append(errs, fmt.Errorf("fetch_interval: %w", err))
	} else if interval <= 0 {
		errs = append(errs, fmt.Errorf("fetch_interval must be positive, got %s", s.FetchInterval))
	}
	if s.FetchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("fetch_concurrency must be at least 1, got %d", s.FetchConcurrency))
	}
	return errors.Join(errs...)
}

// Load merges the defaults, the json5 file at `path` (and its .local override) and the
// PRICEPULSE_ environment variables, then validates the result. An empty `path` skips the
// file sources.
func Load(path string) (Settings, error) {
	settings := Default()
	if path != "" {
		var err error
		settings, _, err = configutil.ReadConfig(path, settings)
		if err != nil {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}
	settings, err := ApplyEnv(settings, os.LookupEnv)
	if err != nil {
		return Settings{}, err
	}
	err = settings.Validate()
	if err != nil {
		return Settings{}, fmt.Errorf("invalid config: %w", err)
	}
	return settings, nil
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) get(key string) (string, bool) {
	v, ok := r.lookup(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (r *envReader) str(key string, out *string) {
	if v, ok := r.get(key); ok {
		*out = v
	}
}

func (r *envReader) float(key string, out *float64) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
		return
	}
	*out = f
}

func (r *envReader) int(key string, out *int) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
		return
	}
	*out = n
}

func (r *envReader) bool(key string, out *bool) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
		return
	}
	*out = b
}

// list accepts either a JSON array or a comma separated list.
func (r *envReader) list(key string, out *[]string) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	if strings.HasPrefix(v, "[") {
		var parsed []string
		err := json.Unmarshal([]byte(v), &parsed)
		if err != nil {
			r.errs = append(r.errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			return
		}
		*out = parsed
		return
	}
	var parsed []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			parsed = append(parsed, item)
		}
	}
	*out = parsed
}

// ApplyEnv overrides `settings` with the PRICEPULSE_ variables visible through `lookup`.
func ApplyEnv(settings Settings, lookup func(string) (string, bool)) (Settings, error) {
	r := &envReader{lookup: lookup}
	r.str("DATABASE_URL", &settings.DatabaseUrl)
	r.float("REQUEST_TIMEOUT", &settings.RequestTimeout)
	r.float("MIN_DELAY_SECONDS", &settings.MinDelaySeconds)
	r.float("MAX_DELAY_SECONDS", &settings.MaxDelaySeconds)
	r.list("USER_AGENTS", &settings.UserAgents)
	r.str("FETCH_INTERVAL", &settings.FetchInterval)
	r.int("FETCH_CONCURRENCY", &settings.FetchConcurrency)
	r.str("HTTP_ADDR", &settings.HttpAddr)
	r.str("OTLP_TRACES_ENDPOINT", &settings.Telemetry.Otlp.Traces.HttpEndpoint)
	r.str("OTLP_METRICS_ENDPOINT", &settings.Telemetry.Otlp.Metrics.HttpEndpoint)
	r.bool("PROMETHEUS", &settings.Telemetry.Prometheus)
	return settings, errors.Join(r.errs...)
}
