package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/valkey-io/valkey-go"

	httpapi "glasscast/internal/api/http"
	"glasscast/internal/auth"
	"glasscast/internal/config"
	"glasscast/internal/scheduler"
	"glasscast/internal/store"
	"glasscast/internal/weather"
	"glasscast/internal/weather/client"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound backend calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Authentication gate, restoring any credential from a previous run.
	gate := auth.NewGate(httpClient, cfg.APIBaseURL, auth.NewFileCredentialStore(cfg.CredentialFile))

	if !gate.Authenticated() && cfg.AuthEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		if err := gate.Login(ctx, cfg.AuthEmail, cfg.AuthPassword); err != nil {
			log.Printf("startup login failed, continuing unauthenticated: %v", err)
		}
		cancel()
	}

	// Durable slot for the city cache, per configured backend.
	slot, cleanup, err := newSlot(cfg)
	if err != nil {
		log.Fatalf("failed to open cache backend %q: %v", cfg.CacheBackend, err)
	}
	defer cleanup()

	cityStore := store.New(slot)

	// Core engine on top of the backend client and the store.
	source := client.New(httpClient, cfg.APIBaseURL, gate)
	engine := weather.NewEngine(source, cityStore)
	engine.Bootstrap()

	// Scheduler keeping favorite cities fresh.
	sched := scheduler.New(engine, cfg.RefreshInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "glasscast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "glasscast",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, engine, gate)

	// Start server with graceful shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// newSlot opens the configured durable slot. The returned cleanup releases
// any underlying handle.
func newSlot(cfg *config.AppConfig) (store.Slot, func(), error) {
	switch cfg.CacheBackend {
	case config.BackendSQLite:
		slot, err := store.NewSQLiteSlot(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return slot, func() { slot.Close() }, nil
	case config.BackendValkey:
		vk, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{cfg.ValkeyAddr}})
		if err != nil {
			return nil, nil, err
		}
		return store.NewValkeySlot(vk, cfg.ValkeyKey), vk.Close, nil
	case config.BackendMemory:
		return store.NewMemorySlot(), func() {}, nil
	default:
		return store.NewFileSlot(cfg.CacheFile), func() {}, nil
	}
}
