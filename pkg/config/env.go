package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "oasa"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "OASA_APP_ENV"
	EnvPort     = "OASA_APP_PORT"
	EnvDBDSN    = "OASA_DB_DSN"
	EnvDBHost   = "OASA_DB_HOST"
	EnvDBUser   = "OASA_DB_USER"
	EnvDBName   = "OASA_DB_NAME"
	EnvRedisURL = "OASA_REDIS_URL"

	EnvJWTSecret = "OASA_JWT_SECRET"
	EnvJWTIssuer = "OASA_JWT_ISSUER"

	EnvDefaultClientID = "OASA_DEFAULT_CLIENT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
