package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ptcms/pkg/logger"
)

func validConfig() *Config {
	return &Config{
		Port:                DefaultPort,
		BackendBaseURL:      DefaultBackendBaseURL,
		BackendTimeout:      DefaultBackendTimeout,
		TimeZone:            DefaultTimeZone,
		QuoteDebounce:       DefaultQuoteDebounce,
		AssignCooldown:      DefaultAssignCooldown,
		CooldownStore:       DefaultCooldownStore,
		DefaultAvgSpeedKmph: DefaultDefaultAvgSpeedKmph,
		JWTSecret:           "secret",
		MongoURI:            DefaultMongoURI,
		MongoDatabaseName:   DefaultMongoDatabaseName,
		MongoConnTimeout:    DefaultMongoConnTimeout,
		ReferenceCacheTTL:   DefaultReferenceCacheTTL,
		RateLimitRequests:   DefaultRateLimitRequests,
		RateLimitWindow:     DefaultRateLimitWindow,
		RequestTimeout:      DefaultRequestTimeout,
		IdempotencyTTL:      DefaultIdempotencyTTL,
		MaxRequestSize:      DefaultMaxRequestSize,
		ReadTimeout:         DefaultReadTimeout,
		WriteTimeout:        DefaultWriteTimeout,
		IdleTimeout:         DefaultIdleTimeout,
		ShutdownTimeout:     DefaultShutdownTimeout,
		Log:                 logger.Discard(),
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Location == nil || cfg.Location.String() != DefaultTimeZone {
		t.Errorf("Location = %v, want %s", cfg.Location, DefaultTimeZone)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"bad port", func(c *Config) { c.Port = "0" }, "Port must be between"},
		{"relative backend url", func(c *Config) { c.BackendBaseURL = "/api" }, "BackendBaseURL"},
		{"unknown zone", func(c *Config) { c.TimeZone = "Mars/Olympus" }, "TimeZone"},
		{"zero debounce", func(c *Config) { c.QuoteDebounce = 0 }, "QuoteDebounce"},
		{"unknown cooldown store", func(c *Config) { c.CooldownStore = "redis" }, "CooldownStore"},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, "JWTSecret"},
		{"zero speed", func(c *Config) { c.DefaultAvgSpeedKmph = 0 }, "DefaultAvgSpeedKmph"},
		{
			name: "mongo store needs mongo uri",
			mutate: func(c *Config) {
				c.CooldownStore = CooldownStoreMongo
				c.MongoURI = "postgres://x"
			},
			wantMsg: "MongoURI must start with",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidate_MemoryStoreIgnoresMongo(t *testing.T) {
	cfg := validConfig()
	cfg.MongoURI = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_NumbersEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.JWTSecret = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "1. ") || !strings.Contains(err.Error(), "2. ") {
		t.Errorf("expected numbered errors, got %q", err.Error())
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv(EnvCORSAllowedOrigins, " http://a.vn , ,http://b.vn")
	got := getEnvList(EnvCORSAllowedOrigins, DefaultCORSAllowedOrigins)
	if len(got) != 2 || got[0] != "http://a.vn" || got[1] != "http://b.vn" {
		t.Errorf("getEnvList() = %v", got)
	}
}

func TestGetEnvDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv(EnvQuoteDebounce, "soon")
	if got := getEnvDuration(EnvQuoteDebounce, time.Second); got != time.Second {
		t.Errorf("getEnvDuration() = %s", got)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "ORDERS_TIME_ZONE=Asia/Bangkok\nBACKEND_BASE_URL=http://from-file:9000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvBackendBaseURL, "http://from-env:8081")
	t.Setenv(EnvTimeZone, "")
	os.Unsetenv(EnvTimeZone)

	loadDotEnv(path)
	t.Cleanup(func() { os.Unsetenv(EnvTimeZone) })

	if got := os.Getenv(EnvBackendBaseURL); got != "http://from-env:8081" {
		t.Errorf("existing variable overridden: %s", got)
	}
	if got := os.Getenv(EnvTimeZone); got != "Asia/Bangkok" {
		t.Errorf("ORDERS_TIME_ZONE = %q, want Asia/Bangkok", got)
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	loadDotEnv(filepath.Join(t.TempDir(), "nope.env"))
}
