package config

import "time"

const (
	CooldownStoreMemory = "memory"
	CooldownStoreMongo  = "mongo"
)

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"
	DefaultDotEnv   = ".env"

	DefaultBackendBaseURL = "http://localhost:8081"
	DefaultBackendTimeout = 10 * time.Second

	DefaultTimeZone            = "Asia/Ho_Chi_Minh"
	DefaultQuoteDebounce       = 1500 * time.Millisecond
	DefaultAssignCooldown      = 5 * time.Minute
	DefaultCooldownStore       = CooldownStoreMemory
	DefaultDefaultAvgSpeedKmph = 60

	DefaultCORSAllowedOrigins = "http://localhost:5173"

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "ptcms_orders"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisDB           = 0
	DefaultReferenceCacheTTL = 5 * time.Minute

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 10 * time.Minute
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
