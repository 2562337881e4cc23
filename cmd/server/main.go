package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/session-auth/internal/api"
	"github.com/dom/session-auth/internal/config"
	"github.com/dom/session-auth/internal/db/migrate"
	"github.com/dom/session-auth/internal/repository/postgres"
	"github.com/dom/session-auth/internal/service"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Development databases are brought up to date on start
	if cfg.Environment == "development" {
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize services
	services, err := service.NewServices(postgres.NewTxManager(db), cfg)
	if err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}

	// Initialize router
	router := api.NewRouter(services, cfg)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Println("Server stopped")
}
