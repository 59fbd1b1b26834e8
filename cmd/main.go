package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	fiber "github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"

	"github.com/jungho-shin/data-migration-study/config"
	"github.com/jungho-shin/data-migration-study/internal/collector"
	"github.com/jungho-shin/data-migration-study/internal/constants"
	"github.com/jungho-shin/data-migration-study/internal/db"
	"github.com/jungho-shin/data-migration-study/internal/db/repos"
	"github.com/jungho-shin/data-migration-study/internal/logger"
	"github.com/jungho-shin/data-migration-study/internal/services"
	"github.com/jungho-shin/data-migration-study/pkg/api/v1/handlers"
	"github.com/jungho-shin/data-migration-study/pkg/api/v1/routes"
)

// shutdownTimeout bounds how long draining waits on the HTTP server and
// on the job manager, each
const shutdownTimeout = 30 * time.Second

func main() {
	// Load .env file if present; the environment wins when both are set
	_ = godotenv.Load()

	logger.Initialize()

	cfg, err := config.LoadCollector()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	dbOpts, err := databaseOptions()
	if err != nil {
		logger.Fatalf("Failed to load database configuration: %v", err)
	}
	database, err := db.New(dbOpts)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	jobRepo := repos.NewJobRepository(database)

	fetcher := collector.NewFetcher(collector.FetcherOptions{
		BaseURL: cfg.BaseURL,
	})
	manager := collector.NewManager(jobRepo, fetcher, collector.ManagerOptions{
		Workers:       cfg.MaxConcurrentJobs,
		CourtesyDelay: cfg.CourtesyDelay,
	})
	if err := manager.Start(context.Background()); err != nil {
		logger.Fatalf("Failed to start job manager: %v", err)
	}

	jobService := services.NewJobService(jobRepo, manager, cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})
	app.Use(logger.APILogger())
	routes.RegisterRoutes(app, handlers.NewJobHandler(jobService))

	port := config.GetEnv(constants.EnvPort, routes.DefaultPort)
	go func() {
		if err := app.Listen(":" + port); err != nil {
			logger.Fatalf("Server stopped: %v", err)
		}
	}()

	// Block until asked to stop, then drain the HTTP server before the
	// engine so no new jobs arrive while workers wind down. Jobs still
	// running when the engine stops are finalized as failed on the next
	// start.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Errorf("Server shutdown: %v", err)
	}
	if err := manager.Stop(shutdownTimeout); err != nil {
		logger.Errorf("Job manager shutdown: %v", err)
	}
}

// databaseOptions builds db.Options from the environment
func databaseOptions() (db.Options, error) {
	port, err := config.GetEnvInt(constants.EnvDBPort, db.DefaultPort)
	if err != nil {
		return db.Options{}, err
	}
	sslEnabled, err := config.GetEnvBool(constants.EnvDBSSLEnabled, false)
	if err != nil {
		return db.Options{}, err
	}

	return db.Options{
		Driver:     db.Driver(config.GetEnv(constants.EnvDBDriver, string(db.DriverSQLite))),
		Path:       config.GetEnv(constants.EnvDBPath, db.DefaultSQLitePath),
		Host:       config.GetEnv(constants.EnvDBHost, db.DefaultHost),
		User:       config.GetEnv(constants.EnvDBUser, db.DefaultUser),
		Password:   config.GetEnv(constants.EnvDBPassword, db.DefaultPassword),
		DBName:     config.GetEnv(constants.EnvDBName, db.DefaultDBName),
		Port:       port,
		SSLEnabled: sslEnabled,
	}, nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
