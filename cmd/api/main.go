package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/NikiP31/TransactionsPipeline/internal/ai"
	"github.com/NikiP31/TransactionsPipeline/internal/cache"
	"github.com/NikiP31/TransactionsPipeline/internal/config"
	"github.com/NikiP31/TransactionsPipeline/internal/server"
	"github.com/NikiP31/TransactionsPipeline/internal/warehouse"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Open the warehouse the pipeline populated; the API only reads it
	sess, err := warehouse.Open(cfg.DuckDBPath, &warehouse.S3Options{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Region:    cfg.MinIORegion,
		UseSSL:    cfg.MinIOUseSSL,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open warehouse")
	}
	defer sess.Close()

	// Tables must exist even before the first pipeline run
	if err := sess.CreateTables(ctx); err != nil {
		logger.WithError(err).Fatal("failed to prepare warehouse schema")
	}

	// Initialize Redis-backed NL→SQL cache (optional)
	var sqlCache *cache.SQLCache
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0, // Use default database for main application
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unavailable, NL→SQL caching disabled")
	} else {
		c, err := cache.New(rclient, 24*time.Hour)
		if err != nil {
			logger.WithError(err).Warn("failed to create sql cache")
		} else {
			sqlCache = c
		}
	}

	// Initialize AI agent for natural language queries (optional)
	var agent *ai.Agent
	aiBase := ai.AgentConfig{
		OpenRouterAPIKey: cfg.OpenRouterAPIKey,
		Model:            cfg.Model,
		Logger:           logger,
	}

	// Only initialize AI if OpenRouter API key is provided
	if cfg.OpenRouterAPIKey != "" {
		a, err := ai.NewAgent(sess, aiBase)
		if err != nil {
			logger.WithError(err).Warn("failed to initialize ai agent")
		} else {
			agent = a
		}
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Session:      sess,           // Shared DuckDB session
		AI:           agent,          // Optional AI agent (can be nil)
		AIBaseConfig: aiBase,         // Base AI configuration for model overrides
		SQLCache:     sqlCache,       // Optional Redis-backed NL→SQL cache
		AITimeout:    cfg.LLMTimeout, // Per-request budget for AI endpoints
		QueryLimit:   cfg.QueryLimit, // Default LIMIT for unbounded queries
		DevMode:      cfg.DevMode,    // Enable detailed error responses in development
		Logger:       logger,         // Structured logger
	}

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr, // Server bind address (e.g., ":8090")
			DevMode: cfg.DevMode, // Development mode flag
			APIKey:  cfg.APIKey,  // Optional API key for authentication
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
