package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "GAMERENT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "GAMERENT_DB_DSN"
	EnvDBHost = "GAMERENT_DB_HOST"
	EnvDBUser = "GAMERENT_DB_USER"
	EnvDBName = "GAMERENT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Stripe       StripeConfig
	Payments     PaymentsConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GAMERENT_APP_ENV" required:"true"`
	Port         string `envconfig:"GAMERENT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GAMERENT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GAMERENT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GAMERENT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GAMERENT_DB_DSN"`
	Driver string `envconfig:"GAMERENT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GAMERENT_DB_HOST"`
	LegacyPort     int    `envconfig:"GAMERENT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GAMERENT_DB_USER"`
	LegacyPassword string `envconfig:"GAMERENT_DB_PASSWORD"`
	LegacyName     string `envconfig:"GAMERENT_DB_NAME"`
	LegacySSLMode  string `envconfig:"GAMERENT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GAMERENT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GAMERENT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GAMERENT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GAMERENT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GAMERENT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GAMERENT_REDIS_ADDR"`
	Password     string        `envconfig:"GAMERENT_REDIS_PASSWORD"`
	DB           int           `envconfig:"GAMERENT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GAMERENT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GAMERENT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GAMERENT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GAMERENT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GAMERENT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GAMERENT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GAMERENT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GAMERENT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type StripeConfig struct {
	APIKey string `envconfig:"GAMERENT_STRIPE_API_KEY"`
	Env    string `envconfig:"GAMERENT_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PaymentsConfig struct {
	Currency        string        `envconfig:"GAMERENT_PAYMENTS_CURRENCY" default:"eur"`
	CheckoutBaseURL string        `envconfig:"GAMERENT_PAYMENTS_CHECKOUT_BASE_URL"`
	GatewayTimeout  time.Duration `envconfig:"GAMERENT_PAYMENTS_GATEWAY_TIMEOUT" default:"10s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"GAMERENT_CRON_INTERVAL" default:"10m"`
	LockTTL  time.Duration `envconfig:"GAMERENT_CRON_LOCK_TTL" default:"15m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GAMERENT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
