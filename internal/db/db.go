// Package db provides database connectivity and operations
package db

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jungho-shin/data-migration-study/internal/db/models"
)

// Driver selects the database backend
type Driver string

// Supported drivers
const (
	// DriverSQLite stores job records in a local file, the standalone default
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores job records in a shared PostgreSQL instance
	DriverPostgres Driver = "postgres"
)

// Database configuration constants
const (
	// DefaultSQLitePath is the default sqlite database file
	DefaultSQLitePath = "collector.db"
	// DefaultHost is the default database host
	DefaultHost = "localhost"
	// DefaultPort is the default database port
	DefaultPort = 5432
	// DefaultUser is the default database user
	DefaultUser = "postgres"
	// DefaultPassword is the default database password
	DefaultPassword = "postgres"
	// DefaultDBName is the default database name
	DefaultDBName = "postgres"
)

// Options represents database connection configuration options
type Options struct {
	Driver Driver

	// Path is the sqlite database file, used when Driver is sqlite
	Path string

	// PostgreSQL connection settings, used when Driver is postgres
	Host       string
	User       string
	Password   string
	DBName     string
	Port       int
	SSLEnabled bool

	LogLevel logger.LogLevel
}

// New creates a new database connection with the given options and runs
// schema migration for the job model
func New(opts Options) (*gorm.DB, error) {
	opts = setDefaults(opts)

	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(opts.Path))
	case DriverPostgres:
		sslMode := "disable"
		if opts.SSLEnabled {
			sslMode = "require"
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
			opts.Host, opts.User, opts.Password, opts.DBName, opts.Port, sslMode)
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", opts.Driver)
	}

	// Configure custom logger to ignore record not found errors
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := migrate(gormDB); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return gormDB, nil
}

// sqliteDSN appends a busy timeout so concurrent job updates and API reads
// on the same file retry instead of failing immediately
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") || strings.HasPrefix(path, "file:") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}

func setDefaults(opts Options) Options {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	if opts.Path == "" {
		opts.Path = DefaultSQLitePath
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.User == "" {
		opts.User = DefaultUser
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.DBName == "" {
		opts.DBName = DefaultDBName
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	return opts
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Job{},
	)
}
