package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Commerce     CommerceConfig
	Cart         CartConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	if err := cfg.Commerce.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MERCATO_APP_ENV" required:"true"`
	Port         string `envconfig:"MERCATO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MERCATO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MERCATO_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"MERCATO_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MERCATO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MERCATO_DB_DSN"`
	Driver string `envconfig:"MERCATO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MERCATO_DB_HOST"`
	Port     int    `envconfig:"MERCATO_DB_PORT" default:"5432"`
	User     string `envconfig:"MERCATO_DB_USER"`
	Password string `envconfig:"MERCATO_DB_PASSWORD"`
	Name     string `envconfig:"MERCATO_DB_NAME"`
	SSLMode  string `envconfig:"MERCATO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MERCATO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MERCATO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MERCATO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MERCATO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MERCATO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MERCATO_REDIS_ADDR"`
	Password     string        `envconfig:"MERCATO_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERCATO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERCATO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERCATO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERCATO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERCATO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MERCATO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MERCATO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MERCATO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MERCATO_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MERCATO_AUTO_MIGRATE" default:"false"`
}

// CommerceConfig carries the platform-wide pricing knobs.
type CommerceConfig struct {
	DefaultCommissionRate string `envconfig:"MERCATO_DEFAULT_COMMISSION_RATE" default:"10"`
	Currency              string `envconfig:"MERCATO_CURRENCY" default:"USD"`
}

// DefaultRate returns the configured platform commission percentage.
// Load rejects values that do not parse, so callers holding a loaded
// config can rely on the result.
func (c CommerceConfig) DefaultRate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.DefaultCommissionRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (c CommerceConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.DefaultCommissionRate))
	if err != nil {
		return fmt.Errorf("%s must be numeric: %w", EnvDefaultCommissionRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%s must be between 0 and 100, got %s", EnvDefaultCommissionRate, rate)
	}
	return nil
}

type CartConfig struct {
	TTL time.Duration `envconfig:"MERCATO_CART_TTL" default:"168h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MERCATO_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MERCATO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MERCATO_GOOGLE_APPLICATION_CREDENTIALS"`
	// PubSubEndpoint points the client at an emulator (host:port, plaintext, no auth).
	PubSubEndpoint string `envconfig:"MERCATO_PUBSUB_ENDPOINT"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"MERCATO_PUBSUB_ORDERS_TOPIC" default:"mercato-order-events"`
	MarketplaceTopic   string `envconfig:"MERCATO_PUBSUB_MARKETPLACE_TOPIC" default:"mercato-marketplace-events"`
	OrdersSubscription string `envconfig:"MERCATO_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MERCATO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MERCATO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MERCATO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// RateLimitConfig sets the fixed-window request budgets. A zero limit
// disables that dimension.
type RateLimitConfig struct {
	Window            time.Duration `envconfig:"MERCATO_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit           int           `envconfig:"MERCATO_RATE_LIMIT_IP" default:"300"`
	UserLimit         int           `envconfig:"MERCATO_RATE_LIMIT_USER" default:"120"`
	CheckoutUserLimit int           `envconfig:"MERCATO_RATE_LIMIT_CHECKOUT_USER" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
