package config

const EnvPrefix = "ADSYNC"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "ADSYNC_DB_DSN"
	EnvDBHost = "ADSYNC_DB_HOST"
	EnvDBUser = "ADSYNC_DB_USER"
	EnvDBName = "ADSYNC_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
