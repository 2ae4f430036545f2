// Command mockapi serves the in-memory personal-finance backend over HTTP
// for local development and end-to-end tests.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"finance-client/internal/apitest"
	"finance-client/internal/config"
	"finance-client/internal/log"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadEnvFile()
	cfg := config.Load()

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Component: log.ComponentMockAPI, Output: os.Stdout})
	log.SetDefault(logger)

	if err := cfg.ValidateServer(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	api, err := newServer(cfg, logger)
	if err != nil {
		logger.Error("Failed to prepare backend", log.FieldError, err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting mock API", "port", cfg.Port, "casing", casingName(cfg.MockCasing))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// newServer builds the backend and seeds the configured account when a seed
// email and password are both set.
func newServer(cfg *config.Config, logger *log.Logger) (*apitest.Server, error) {
	srv := apitest.New(apitest.Config{
		Secret: []byte(cfg.JWTSecret),
		Casing: parseCasing(cfg.MockCasing),
		Logger: logger,
	})

	if cfg.SeedEmail != "" && cfg.SeedPassword != "" {
		id, err := srv.AddUser(cfg.SeedEmail, cfg.SeedPassword, cfg.SeedFirstName, cfg.SeedLastName)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", cfg.SeedEmail, err)
		}
		logger.Info("Seeded user", "email", cfg.SeedEmail, log.FieldUserID, id)
	}
	return srv, nil
}

func parseCasing(s string) apitest.Casing {
	if strings.EqualFold(s, "go") {
		return apitest.GoCase
	}
	return apitest.SnakeCase
}

func casingName(s string) string {
	if parseCasing(s) == apitest.GoCase {
		return "go"
	}
	return "snake"
}
