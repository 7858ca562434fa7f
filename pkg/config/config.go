package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	APIRateLimit  APIRateLimitConfig
	Cache         CacheConfig
	Lock          LockConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Email         EmailConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LEATHERWORKS_APP_ENV" required:"true"`
	Port         string `envconfig:"LEATHERWORKS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LEATHERWORKS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LEATHERWORKS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"LEATHERWORKS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"LEATHERWORKS_CORS_ORIGINS" default:"*"`
	MetricsPort  string `envconfig:"LEATHERWORKS_METRICS_PORT" default:"9090"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	return splitList(a.CORSOrigins)
}

type DBConfig struct {
	DSN    string `envconfig:"LEATHERWORKS_DB_DSN"`
	Driver string `envconfig:"LEATHERWORKS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LEATHERWORKS_DB_HOST"`
	LegacyPort     int    `envconfig:"LEATHERWORKS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEATHERWORKS_DB_USER"`
	LegacyPassword string `envconfig:"LEATHERWORKS_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEATHERWORKS_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEATHERWORKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEATHERWORKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEATHERWORKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEATHERWORKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEATHERWORKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver targets sqlite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"LEATHERWORKS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LEATHERWORKS_REDIS_ADDR"`
	Password     string        `envconfig:"LEATHERWORKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEATHERWORKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEATHERWORKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEATHERWORKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEATHERWORKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEATHERWORKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEATHERWORKS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LEATHERWORKS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LEATHERWORKS_JWT_ISSUER" default:"leatherworks"`
	ExpirationMinutes      int    `envconfig:"LEATHERWORKS_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"LEATHERWORKS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LEATHERWORKS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LEATHERWORKS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LEATHERWORKS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LEATHERWORKS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LEATHERWORKS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"LEATHERWORKS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"LEATHERWORKS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"LEATHERWORKS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// APIRateLimitConfig drives the fixed-window limiter applied to authenticated routes.
type APIRateLimitConfig struct {
	Enabled      bool          `envconfig:"LEATHERWORKS_API_RATE_LIMIT_ENABLED" default:"true"`
	Window       time.Duration `envconfig:"LEATHERWORKS_API_RATE_LIMIT_WINDOW" default:"1m"`
	Limit        int           `envconfig:"LEATHERWORKS_API_RATE_LIMIT" default:"300"`
	EmailWindow  time.Duration `envconfig:"LEATHERWORKS_API_RATE_LIMIT_EMAIL_WINDOW" default:"1m"`
	EmailActions int           `envconfig:"LEATHERWORKS_API_RATE_LIMIT_EMAIL_ACTIONS" default:"10"`
}

type CacheConfig struct {
	CRMTTL       time.Duration `envconfig:"LEATHERWORKS_CACHE_CRM_TTL" default:"5m"`
	DashboardTTL time.Duration `envconfig:"LEATHERWORKS_CACHE_DASHBOARD_TTL" default:"1m"`
}

type LockConfig struct {
	ShipmentTTL time.Duration `envconfig:"LEATHERWORKS_LOCK_SHIPMENT_TTL" default:"30s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LEATHERWORKS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LEATHERWORKS_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"LEATHERWORKS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LEATHERWORKS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"LEATHERWORKS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LEATHERWORKS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"LEATHERWORKS_PUBSUB_DOMAIN_TOPIC" default:"lw-domain-events"`
	DomainSubscription string `envconfig:"LEATHERWORKS_PUBSUB_DOMAIN_SUBSCRIPTION" default:"lw-domain-events-worker"`
}

type BigQueryConfig struct {
	Dataset             string `envconfig:"LEATHERWORKS_BIGQUERY_DATASET"`
	StockMovementsTable string `envconfig:"LEATHERWORKS_BIGQUERY_STOCK_MOVEMENTS_TABLE" default:"stock_movements"`
}

// Enabled reports whether a reporting dataset was configured.
func (b BigQueryConfig) Enabled() bool {
	return strings.TrimSpace(b.Dataset) != ""
}

type EmailConfig struct {
	Providers      string `envconfig:"LEATHERWORKS_EMAIL_PROVIDERS" default:"log"`
	FromAddress    string `envconfig:"LEATHERWORKS_EMAIL_FROM" default:"no-reply@leatherworks.local"`
	FromName       string `envconfig:"LEATHERWORKS_EMAIL_FROM_NAME" default:"Leatherworks ERP"`
	SendgridAPIKey string `envconfig:"LEATHERWORKS_SENDGRID_API_KEY"`
	SMTPHost       string `envconfig:"LEATHERWORKS_SMTP_HOST"`
	SMTPPort       int    `envconfig:"LEATHERWORKS_SMTP_PORT" default:"587"`
	SMTPUsername   string `envconfig:"LEATHERWORKS_SMTP_USERNAME"`
	SMTPPassword   string `envconfig:"LEATHERWORKS_SMTP_PASSWORD"`
	WarehouseInbox string `envconfig:"LEATHERWORKS_EMAIL_WAREHOUSE_INBOX"`
	AppBaseURL     string `envconfig:"LEATHERWORKS_APP_BASE_URL" default:"http://localhost:3000"`
}

// ProviderOrder returns the normalized provider fallback chain.
func (e EmailConfig) ProviderOrder() []string {
	out := []string{}
	for _, p := range splitList(e.Providers) {
		out = append(out, strings.ToLower(p))
	}
	return out
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"LEATHERWORKS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"LEATHERWORKS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"LEATHERWORKS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Delivery       string `envconfig:"LEATHERWORKS_OUTBOX_DELIVERY" default:"inline"`
}

// UsesPubSub reports whether outbox rows are forwarded to Pub/Sub instead of dispatched inline.
func (o OutboxConfig) UsesPubSub() bool {
	return strings.EqualFold(strings.TrimSpace(o.Delivery), OutboxDeliveryPubSub)
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite || db.IsSQLite() {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = DefaultSQLiteDSN
		}
		return nil
	}
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

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
