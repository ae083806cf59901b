package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ptcms/pkg/client"
	"ptcms/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	BackendBaseURL string
	BackendTimeout time.Duration

	TimeZone            string
	Location            *time.Location
	QuoteDebounce       time.Duration
	AssignCooldown      time.Duration
	CooldownStore       string
	DefaultAvgSpeedKmph int

	JWTSecret          string
	CORSAllowedOrigins []string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	ReferenceCacheTTL time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration from the environment. A .env file, when
// present, fills in variables that are not already set.
func Load(serviceName string) *Config {
	loadDotEnv(getEnvStr(EnvDotEnv, DefaultDotEnv))

	cfg := &Config{
		Port: getEnvStr(EnvPort, DefaultPort),

		BackendBaseURL: getEnvStr(EnvBackendBaseURL, DefaultBackendBaseURL),
		BackendTimeout: getEnvDuration(EnvBackendTimeout, DefaultBackendTimeout),

		TimeZone:            getEnvStr(EnvTimeZone, DefaultTimeZone),
		QuoteDebounce:       getEnvDuration(EnvQuoteDebounce, DefaultQuoteDebounce),
		AssignCooldown:      getEnvDuration(EnvAssignCooldown, DefaultAssignCooldown),
		CooldownStore:       strings.ToLower(getEnvStr(EnvCooldownStore, DefaultCooldownStore)),
		DefaultAvgSpeedKmph: getEnvNum(EnvDefaultAvgSpeedKmph, DefaultDefaultAvgSpeedKmph),

		JWTSecret:          getEnvStr(EnvJWTSecret, ""),
		CORSAllowedOrigins: getEnvList(EnvCORSAllowedOrigins, DefaultCORSAllowedOrigins),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:         getEnvStr(EnvRedisAddr, ""),
		RedisPassword:     getEnvStr(EnvRedisPassword, ""),
		RedisDB:           getEnvNum(EnvRedisDB, DefaultRedisDB),
		ReferenceCacheTTL: getEnvDuration(EnvReferenceCacheTTL, DefaultReferenceCacheTTL),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	// godotenv.Load never overrides variables that are already set.
	_ = godotenv.Load(path)
}

func (cfg *Config) SetBackend() {
	cfg.Client.SetBackend(cfg.Log, cfg.BackendBaseURL, cfg.BackendTimeout)
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("REDIS_ADDR not set, reference cache disabled")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

// UsesMongo reports whether any component needs a MongoDB connection.
func (cfg *Config) UsesMongo() bool {
	return cfg.CooldownStore == CooldownStoreMongo
}

// Validate checks every field and resolves Location. All problems are
// reported at once.
func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if u, err := url.Parse(cfg.BackendBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("BackendBaseURL must be an absolute http(s) URL, got: %s", cfg.BackendBaseURL))
	}
	if cfg.BackendTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("BackendTimeout must be positive, got: %s", cfg.BackendTimeout))
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("TimeZone must be a valid IANA zone, got: %s", cfg.TimeZone))
	} else {
		cfg.Location = loc
	}

	if cfg.QuoteDebounce <= 0 {
		errors = append(errors, fmt.Sprintf("QuoteDebounce must be positive, got: %s", cfg.QuoteDebounce))
	}
	if cfg.AssignCooldown < 0 {
		errors = append(errors, fmt.Sprintf("AssignCooldown cannot be negative, got: %s", cfg.AssignCooldown))
	}
	if cfg.CooldownStore != CooldownStoreMemory && cfg.CooldownStore != CooldownStoreMongo {
		errors = append(errors, fmt.Sprintf("CooldownStore must be %q or %q, got: %s", CooldownStoreMemory, CooldownStoreMongo, cfg.CooldownStore))
	}
	if cfg.DefaultAvgSpeedKmph <= 0 {
		errors = append(errors, fmt.Sprintf("DefaultAvgSpeedKmph must be positive, got: %d", cfg.DefaultAvgSpeedKmph))
	}

	if cfg.JWTSecret == "" {
		errors = append(errors, "JWTSecret cannot be empty")
	}

	if cfg.UsesMongo() {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	}

	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}
	if cfg.ReferenceCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("ReferenceCacheTTL must be positive, got: %s", cfg.ReferenceCacheTTL))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"backend_base_url", cfg.BackendBaseURL,
		"backend_timeout", cfg.BackendTimeout,
		"time_zone", cfg.TimeZone,
		"quote_debounce", cfg.QuoteDebounce,
		"assign_cooldown", cfg.AssignCooldown,
		"cooldown_store", cfg.CooldownStore,
		"default_avg_speed_kmph", cfg.DefaultAvgSpeedKmph,
		"jwt_secret_set", cfg.JWTSecret != "",
		"cors_allowed_origins", cfg.CORSAllowedOrigins,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"redis_addr", cfg.RedisAddr,
		"redis_db", cfg.RedisDB,
		"reference_cache_ttl", cfg.ReferenceCacheTTL,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
