package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "gymhub/docs"
	"gymhub/internal/config"
	"gymhub/internal/db"
	"gymhub/internal/email"
	"gymhub/internal/logger"
	"gymhub/internal/notification"
	"gymhub/internal/scheduler"
	"gymhub/internal/server"
	"gymhub/internal/storage"
)

// @title GymHub API
// @version 1.0
// @description Multi-tenant gym management: subscriptions, members, QR attendance, billing and platform administration.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting GymHub application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewMinio(storage.Options{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		logger.Fatalf("Failed to create object store: %v", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Fatalf("Failed to prepare bucket %s: %v", cfg.MinioBucket, err)
	}
	logger.Info("Object storage ready", "bucket", cfg.MinioBucket)

	emailService := email.New(
		cfg.EmailFrom,
		cfg.EmailFromName,
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		cfg.RedisAddr,
	)
	defer emailService.Close()
	go emailService.Start(ctx)
	logger.Info("Email service initialized")

	hub := notification.NewHub()
	go hub.Run(ctx)

	services := server.NewServices(database, cfg, emailService, store, hub)

	if err := services.Users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatalf("Failed to provision admin account: %v", err)
	}

	jobs, err := scheduler.New(emailService, services.Gyms, services.Notifications, emailService, cfg.ReminderHour)
	if err != nil {
		logger.Fatalf("Failed to create scheduler: %v", err)
	}
	jobs.Start()

	srv := server.New(cfg, services)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	if err := jobs.Stop(); err != nil {
		logger.Errorf("Error stopping scheduler: %v", err)
	}
	cancel()

	logger.Info("Server stopped")
}
