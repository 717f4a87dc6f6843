package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the license server configuration.
type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Admin        AdminConfig
	Retention    RetentionConfig
	CORS         CORSConfig
	Proxy        ProxyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.RateLimit.validate(cfg.Redis); err != nil {
		return nil, err
	}
	if _, err := cfg.Proxy.TrustedPrefixes(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LICENSER_APP_ENV" required:"true"`
	Port         string `envconfig:"LICENSER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LICENSER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LICENSER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LICENSER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LICENSER_DB_DSN"`
	Driver string `envconfig:"LICENSER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LICENSER_DB_HOST"`
	LegacyPort     int    `envconfig:"LICENSER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LICENSER_DB_USER"`
	LegacyPassword string `envconfig:"LICENSER_DB_PASSWORD"`
	LegacyName     string `envconfig:"LICENSER_DB_NAME"`
	LegacySSLMode  string `envconfig:"LICENSER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LICENSER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LICENSER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LICENSER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LICENSER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the ledger runs on the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"LICENSER_REDIS_URL"`
	Address      string        `envconfig:"LICENSER_REDIS_ADDR"`
	Password     string        `envconfig:"LICENSER_REDIS_PASSWORD"`
	DB           int           `envconfig:"LICENSER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LICENSER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LICENSER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LICENSER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LICENSER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LICENSER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"LICENSER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LICENSER_JWT_ISSUER" default:"petlife-licenser"`
	ExpirationMinutes int    `envconfig:"LICENSER_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// TokenTTL returns the admin token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LICENSER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LICENSER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LICENSER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LICENSER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LICENSER_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig holds the three throttling surfaces of the API.
type RateLimitConfig struct {
	Backend       string        `envconfig:"LICENSER_RATE_LIMIT_BACKEND" default:"memory"`
	SweepInterval time.Duration `envconfig:"LICENSER_RATE_LIMIT_SWEEP_INTERVAL" default:"1m"`

	PublicWindow time.Duration `envconfig:"LICENSER_RATE_LIMIT_PUBLIC_WINDOW" default:"1h"`
	PublicLimit  int           `envconfig:"LICENSER_RATE_LIMIT_PUBLIC_LIMIT" default:"100"`
	AdminWindow  time.Duration `envconfig:"LICENSER_RATE_LIMIT_ADMIN_WINDOW" default:"1h"`
	AdminLimit   int           `envconfig:"LICENSER_RATE_LIMIT_ADMIN_LIMIT" default:"500"`
	LoginWindow  time.Duration `envconfig:"LICENSER_RATE_LIMIT_LOGIN_WINDOW" default:"15m"`
	LoginLimit   int           `envconfig:"LICENSER_RATE_LIMIT_LOGIN_LIMIT" default:"5"`
}

func (r RateLimitConfig) UsesRedis() bool {
	return strings.EqualFold(r.Backend, RateLimitBackendRedis)
}

func (r RateLimitConfig) validate(redis RedisConfig) error {
	switch strings.ToLower(strings.TrimSpace(r.Backend)) {
	case RateLimitBackendMemory:
		return nil
	case RateLimitBackendRedis:
		if !redis.Enabled() {
			return fmt.Errorf("%s=redis requires %s or %s", EnvRateLimitBackend, EnvRedisURL, EnvRedisAddr)
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvRateLimitBackend, r.Backend)
	}
}

type FeatureFlagsConfig struct {
	UseSQLite     bool `envconfig:"LICENSER_USE_SQLITE" default:"false"`
	AutoMigrate   bool `envconfig:"LICENSER_AUTO_MIGRATE" default:"false"`
	TestEndpoints bool `envconfig:"LICENSER_TEST_ENDPOINTS" default:"false"`
}

// AdminConfig seeds the first administrator account.
type AdminConfig struct {
	Username string `envconfig:"LICENSER_ADMIN_USERNAME" default:"admin"`
	Password string `envconfig:"LICENSER_ADMIN_PASSWORD"`
	FullName string `envconfig:"LICENSER_ADMIN_FULL_NAME" default:"Administrator"`
}

// CORSConfig lists the browser origins allowed to call the API (the admin panel).
type CORSConfig struct {
	AllowedOrigins []string `envconfig:"LICENSER_CORS_ALLOWED_ORIGINS" default:"*"`
}

// ProxyConfig lists the reverse proxies whose forwarding headers are believed.
// Empty means the socket peer is always the caller.
type ProxyConfig struct {
	TrustedProxies []string `envconfig:"LICENSER_TRUSTED_PROXIES"`
}

// TrustedPrefixes parses TrustedProxies. Bare addresses become single-host prefixes.
func (p ProxyConfig) TrustedPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(p.TrustedProxies))
	for _, raw := range p.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s entry %q: %w", EnvTrustedProxies, raw, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", EnvTrustedProxies, raw, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

type RetentionConfig struct {
	ValidationDays int           `envconfig:"LICENSER_VALIDATION_RETENTION_DAYS" default:"0"`
	Interval       time.Duration `envconfig:"LICENSER_RETENTION_INTERVAL" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "licenser.db"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
