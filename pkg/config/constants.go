package config

const (
	EnvPrefix = "LEATHERWORKS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:leatherworks.db?_foreign_keys=on"

	OutboxDeliveryInline = "inline"
	OutboxDeliveryPubSub = "pubsub"
)

const (
	EnvAppEnv   = "LEATHERWORKS_APP_ENV"
	EnvPort     = "LEATHERWORKS_APP_PORT"
	EnvLogLevel = "LEATHERWORKS_LOG_LEVEL"

	EnvDBDSN     = "LEATHERWORKS_DB_DSN"
	EnvDBDriver  = "LEATHERWORKS_DB_DRIVER"
	EnvDBHost    = "LEATHERWORKS_DB_HOST"
	EnvDBUser    = "LEATHERWORKS_DB_USER"
	EnvDBName    = "LEATHERWORKS_DB_NAME"
	EnvUseSQLite = "LEATHERWORKS_USE_SQLITE"

	EnvRedisURL = "LEATHERWORKS_REDIS_URL"

	EnvJWTSecret              = "LEATHERWORKS_JWT_SECRET"
	EnvJWTIssuer              = "LEATHERWORKS_JWT_ISSUER"
	EnvJWTExpMins             = "LEATHERWORKS_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "LEATHERWORKS_REFRESH_TOKEN_TTL_MINUTES"

	EnvEmailProviders  = "LEATHERWORKS_EMAIL_PROVIDERS"
	EnvOutboxDelivery  = "LEATHERWORKS_OUTBOX_DELIVERY"
	EnvBigQueryDataset = "LEATHERWORKS_BIGQUERY_DATASET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
