package config

// EnvPrefix is unused by envconfig tags (each field names its variable in
// full) but kept for tooling that wants to enumerate the namespace.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "AGREEMENTS_DB_DSN"
	EnvDBHost = "AGREEMENTS_DB_HOST"
	EnvDBUser = "AGREEMENTS_DB_USER"
	EnvDBName = "AGREEMENTS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
