package config

// EnvPrefix is passed to envconfig; struct tags carry the full variable names.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "PRINTVEDA_DB_DSN"
	EnvDBHost = "PRINTVEDA_DB_HOST"
	EnvDBUser = "PRINTVEDA_DB_USER"
	EnvDBName = "PRINTVEDA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
