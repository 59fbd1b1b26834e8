// This file initializes or updates the database schema.
// How to run:
// go run cmd/migrate/main.go
//
// It reads the same DB_* environment variables as the server, so a
// .env file prepared for the server works here unchanged.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/jungho-shin/data-migration-study/config"
	"github.com/jungho-shin/data-migration-study/internal/constants"
	"github.com/jungho-shin/data-migration-study/internal/db"
)

func main() {
	// Load .env file if present; the environment wins when both are set
	_ = godotenv.Load()

	port, err := config.GetEnvInt(constants.EnvDBPort, db.DefaultPort)
	if err != nil {
		log.Fatalf("Invalid %s: %v", constants.EnvDBPort, err)
	}
	sslEnabled, err := config.GetEnvBool(constants.EnvDBSSLEnabled, false)
	if err != nil {
		log.Fatalf("Invalid %s: %v", constants.EnvDBSSLEnabled, err)
	}

	opts := db.Options{
		Driver:     db.Driver(config.GetEnv(constants.EnvDBDriver, string(db.DriverSQLite))),
		Path:       config.GetEnv(constants.EnvDBPath, db.DefaultSQLitePath),
		Host:       config.GetEnv(constants.EnvDBHost, db.DefaultHost),
		User:       config.GetEnv(constants.EnvDBUser, db.DefaultUser),
		Password:   config.GetEnv(constants.EnvDBPassword, db.DefaultPassword),
		DBName:     config.GetEnv(constants.EnvDBName, db.DefaultDBName),
		Port:       port,
		SSLEnabled: sslEnabled,
	}

	if _, err := db.New(opts); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Database schema is up to date (driver: %s)", opts.Driver)
}
