package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	ESign        ESignConfig
	Notify       NotifyConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	RateLimit    RateLimitConfig
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
	Env          string `envconfig:"DEVISIO_APP_ENV" required:"true"`
	Port         string `envconfig:"DEVISIO_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"DEVISIO_APP_BASE_URL" default:"http://localhost:5000"`
	LogLevel     string `envconfig:"DEVISIO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DEVISIO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DEVISIO_DB_DSN"`
	Driver string `envconfig:"DEVISIO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DEVISIO_DB_HOST"`
	LegacyPort     int    `envconfig:"DEVISIO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DEVISIO_DB_USER"`
	LegacyPassword string `envconfig:"DEVISIO_DB_PASSWORD"`
	LegacyName     string `envconfig:"DEVISIO_DB_NAME"`
	LegacySSLMode  string `envconfig:"DEVISIO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DEVISIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DEVISIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DEVISIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DEVISIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DEVISIO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DEVISIO_REDIS_ADDR"`
	Password     string        `envconfig:"DEVISIO_REDIS_PASSWORD"`
	DB           int           `envconfig:"DEVISIO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DEVISIO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DEVISIO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DEVISIO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DEVISIO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DEVISIO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig guards the operator-facing API. Token issuance happens in the
// auth frontend; this service only verifies bearer tokens.
type JWTConfig struct {
	Secret            string `envconfig:"DEVISIO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DEVISIO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"DEVISIO_JWT_EXPIRATION_MINUTES" default:"120"`
}

// ESignConfig points at the e-signature provider.
type ESignConfig struct {
	Env            string        `envconfig:"DEVISIO_ESIGN_ENV" default:"demo"`
	IntegratorKey  string        `envconfig:"DEVISIO_ESIGN_INTEGRATOR_KEY"`
	UserID         string        `envconfig:"DEVISIO_ESIGN_USER_ID"`
	AccountID      string        `envconfig:"DEVISIO_ESIGN_ACCOUNT_ID"`
	PrivateKeyPath string        `envconfig:"DEVISIO_ESIGN_PRIVATE_KEY_PATH"`
	APIBaseURL     string        `envconfig:"DEVISIO_ESIGN_API_BASE_URL"`
	OAuthBaseURL   string        `envconfig:"DEVISIO_ESIGN_OAUTH_BASE_URL"`
	HTTPTimeout    time.Duration `envconfig:"DEVISIO_ESIGN_HTTP_TIMEOUT" default:"30s"`
	TokenTTL       time.Duration `envconfig:"DEVISIO_ESIGN_TOKEN_TTL" default:"58m"`
}

// Environment returns the normalized provider environment (demo/prod).
func (e ESignConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(e.Env))
	if env == "" {
		return ESignEnvDemo
	}
	return env
}

// ResolvedAPIBaseURL falls back to the provider's well-known hosts when no
// explicit override is configured.
func (e ESignConfig) ResolvedAPIBaseURL() string {
	if e.APIBaseURL != "" {
		return e.APIBaseURL
	}
	if e.Environment() == ESignEnvDemo {
		return "https://demo.docusign.net/restapi"
	}
	return "https://www.docusign.net/restapi"
}

// ResolvedOAuthBaseURL falls back to the provider's well-known auth hosts.
func (e ESignConfig) ResolvedOAuthBaseURL() string {
	if e.OAuthBaseURL != "" {
		return e.OAuthBaseURL
	}
	if e.Environment() == ESignEnvDemo {
		return "https://account-d.docusign.com"
	}
	return "https://account.docusign.com"
}

// NotifyConfig bounds the best-effort third-party forwarding call.
type NotifyConfig struct {
	Timeout time.Duration `envconfig:"DEVISIO_NOTIFY_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DEVISIO_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"DEVISIO_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

// RateLimitConfig throttles the unauthenticated webhook surface. A zero
// window or limit disables the check.
type RateLimitConfig struct {
	WebhookWindow  time.Duration `envconfig:"DEVISIO_RATE_LIMIT_WEBHOOK_WINDOW" default:"1m"`
	WebhookIPLimit int           `envconfig:"DEVISIO_RATE_LIMIT_WEBHOOK_IP_LIMIT" default:"120"`
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
