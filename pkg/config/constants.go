package config

// EnvPrefix is empty because every field carries its fully-qualified
// DEVISIO_* name in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	ESignEnvDemo = "demo"
	ESignEnvProd = "prod"
)

const (
	EnvDBDSN  = "DEVISIO_DB_DSN"
	EnvDBHost = "DEVISIO_DB_HOST"
	EnvDBUser = "DEVISIO_DB_USER"
	EnvDBName = "DEVISIO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
