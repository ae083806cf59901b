package config

const (
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"
	EnvDotEnv   = "ORDERS_ENV_FILE"

	EnvBackendBaseURL = "BACKEND_BASE_URL"
	EnvBackendTimeout = "BACKEND_TIMEOUT"

	EnvTimeZone            = "ORDERS_TIME_ZONE"
	EnvQuoteDebounce       = "ORDERS_QUOTE_DEBOUNCE"
	EnvAssignCooldown      = "ORDERS_ASSIGN_COOLDOWN"
	EnvCooldownStore       = "ORDERS_COOLDOWN_STORE"
	EnvDefaultAvgSpeedKmph = "ORDERS_DEFAULT_AVG_SPEED_KMPH"

	EnvJWTSecret          = "ORDERS_JWT_SECRET"
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr         = "REDIS_ADDR"
	EnvRedisPassword     = "REDIS_PASSWORD"
	EnvRedisDB           = "REDIS_DB"
	EnvReferenceCacheTTL = "REFERENCE_CACHE_TTL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
