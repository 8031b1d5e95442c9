package config

// EnvPrefix is empty because every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                = "MERCATO_APP_ENV"
	EnvPort                  = "MERCATO_APP_PORT"
	EnvDBDSN                 = "MERCATO_DB_DSN"
	EnvDBHost                = "MERCATO_DB_HOST"
	EnvDBUser                = "MERCATO_DB_USER"
	EnvDBName                = "MERCATO_DB_NAME"
	EnvRedisURL              = "MERCATO_REDIS_URL"
	EnvJWTSecret             = "MERCATO_JWT_SECRET"
	EnvJWTIssuer             = "MERCATO_JWT_ISSUER"
	EnvJWTExpMins            = "MERCATO_JWT_EXPIRATION_MINUTES"
	EnvDefaultCommissionRate = "MERCATO_DEFAULT_COMMISSION_RATE"
	EnvCurrency              = "MERCATO_CURRENCY"
	EnvCartTTL               = "MERCATO_CART_TTL"
	EnvGCPProjectID          = "MERCATO_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic     = "MERCATO_PUBSUB_ORDERS_TOPIC"
	EnvPubSubMarketplace     = "MERCATO_PUBSUB_MARKETPLACE_TOPIC"
	EnvPubSubOrdersSub       = "MERCATO_PUBSUB_ORDERS_SUBSCRIPTION"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
