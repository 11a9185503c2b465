package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"propertypulse/config"
	"propertypulse/middleware"
	"propertypulse/routes"
	"propertypulse/utils"
	"propertypulse/worker"
)

func main() {
	logger := log.New(os.Stdout, "SERVER: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Sentry when a DSN is configured
	if config.AppConfig.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		})
		if err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Shared services
	mailer := utils.NewSMTPMailer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
		config.AppConfig.FromName,
		config.AppConfig.FromEmail,
	)
	generator := utils.NewContentGenerator(
		config.AppConfig.LLM.BaseURL,
		config.AppConfig.LLM.APIKey,
		config.AppConfig.LLM.Model,
		log.New(os.Stdout, "CONTENT: ", log.LstdFlags),
	)

	// Autoresponder sequencer and its background sweep
	store := worker.NewGormSubscriptionStore(config.DB)
	sequencer := worker.NewSequencer(store, mailer, log.New(os.Stdout, "AUTORESPONDER: ", log.LstdFlags))

	autoresponderWorker := worker.NewAutoresponderWorker(
		sequencer,
		time.Duration(config.AppConfig.SweepInterval)*time.Minute,
		log.New(os.Stdout, "AUTORESPONDER: ", log.LstdFlags),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go autoresponderWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, routes.Deps{
		DB:        config.DB,
		Mailer:    mailer,
		Sequencer: sequencer,
		Generator: generator,
	})

	// Start server
	logger.Printf("Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
