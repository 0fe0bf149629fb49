package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"upgradify/internal/config"
	"upgradify/internal/container"
	"upgradify/internal/handler"
	"upgradify/pkg/logger"
)

// Resources holds all resources that need cleanup
type Resources struct {
	container *container.Container
	server    *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	var shutdownErr error
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			shutdownErr = fmt.Errorf("HTTP server shutdown: %w", err)
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	// Disposes the session store, then Redis and Postgres
	r.container.Close(ctx)

	if shutdownErr != nil {
		return shutdownErr
	}
	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":              cfg.Port,
		"log_level":         cfg.LogLevel,
		"environment":       cfg.Environment,
		"identity_provider": cfg.IdentityProvider,
	}).Info("Starting upgradify server")

	ctx := context.Background()
	c, err := container.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	// Resolve the initial identity; requests wait for readiness
	if err := c.Store.Init(ctx); err != nil {
		log.WithError(err).Warn("Session restore failed, starting signed out")
	}

	router := handler.NewRouter(c.RouterConfig())

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	resources := &Resources{
		container: c,
		server:    server,
		log:       log,
	}

	// Setup graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}
