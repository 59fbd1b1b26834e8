// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvPort is the environment variable containing the API server port
	EnvPort = "PORT"

	// EnvDBDriver selects the database backend, "sqlite" or "postgres"
	EnvDBDriver = "DB_DRIVER"
	// EnvDBPath is the sqlite database file path
	EnvDBPath = "DB_PATH"
	// EnvDBHost is the PostgreSQL host
	EnvDBHost = "DB_HOST"
	// EnvDBPort is the PostgreSQL port
	EnvDBPort = "DB_PORT"
	// EnvDBUser is the PostgreSQL user
	EnvDBUser = "DB_USER"
	// EnvDBPassword is the PostgreSQL password
	EnvDBPassword = "DB_PASSWORD"
	// EnvDBName is the PostgreSQL database name
	EnvDBName = "DB_NAME"
	// EnvDBSSLEnabled turns on TLS for the PostgreSQL connection
	EnvDBSSLEnabled = "DB_SSL_ENABLED"

	// EnvOutputDir is the default directory for downloaded artifacts
	EnvOutputDir = "OUTPUT_DIR"
	// EnvMaxConcurrentJobs bounds how many jobs run at once
	EnvMaxConcurrentJobs = "MAX_CONCURRENT_JOBS"
	// EnvCourtesyDelay overrides the pause between consecutive period
	// fetches of one job, e.g. "500ms" or "2s"
	EnvCourtesyDelay = "COURTESY_DELAY"
	// EnvTripdataBaseURL overrides the trip-data mirror base URL
	EnvTripdataBaseURL = "TRIPDATA_BASE_URL"

	// EnvServerAddress is the API server address used by the CLI
	EnvServerAddress = "COLLECTOR_SERVER_ADDRESS"
)
