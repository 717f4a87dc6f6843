package config

// EnvPrefix namespaces every variable read by envconfig.
const EnvPrefix = "LICENSER"

const (
	AppEnvDev     = "dev"
	AppEnvStaging = "staging"
	AppEnvProd    = "prod"
)

const (
	EnvAppEnv   = "LICENSER_APP_ENV"
	EnvPort     = "LICENSER_APP_PORT"
	EnvLogLevel = "LICENSER_LOG_LEVEL"

	EnvDBDSN    = "LICENSER_DB_DSN"
	EnvDBDriver = "LICENSER_DB_DRIVER"
	EnvDBHost   = "LICENSER_DB_HOST"
	EnvDBUser   = "LICENSER_DB_USER"
	EnvDBName   = "LICENSER_DB_NAME"

	EnvRedisURL  = "LICENSER_REDIS_URL"
	EnvRedisAddr = "LICENSER_REDIS_ADDR"

	EnvJWTSecret  = "LICENSER_JWT_SECRET"
	EnvJWTIssuer  = "LICENSER_JWT_ISSUER"
	EnvJWTExpMins = "LICENSER_JWT_EXPIRATION_MINUTES"

	EnvRateLimitBackend     = "LICENSER_RATE_LIMIT_BACKEND"
	EnvRateLimitPublicLimit = "LICENSER_RATE_LIMIT_PUBLIC_LIMIT"
	EnvRateLimitLoginWindow = "LICENSER_RATE_LIMIT_LOGIN_WINDOW"

	EnvUseSQLite     = "LICENSER_USE_SQLITE"
	EnvAutoMigrate   = "LICENSER_AUTO_MIGRATE"
	EnvTestEndpoints = "LICENSER_TEST_ENDPOINTS"

	EnvAdminUsername = "LICENSER_ADMIN_USERNAME"
	EnvAdminPassword = "LICENSER_ADMIN_PASSWORD"

	EnvValidationRetentionDays = "LICENSER_VALIDATION_RETENTION_DAYS"

	EnvCORSAllowedOrigins = "LICENSER_CORS_ALLOWED_ORIGINS"
	EnvTrustedProxies     = "LICENSER_TRUSTED_PROXIES"

	EnvClientServerURL  = "LICENSER_SERVER_URL"
	EnvClientAppID      = "LICENSER_CLIENT_APP_ID"
	EnvClientAppVersion = "LICENSER_CLIENT_APP_VERSION"
	EnvClientStorePath  = "LICENSER_CLIENT_STORE"
)

const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
