package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avelichko/envoy-engine/internal/config"
	"github.com/avelichko/envoy-engine/internal/handlers"
	"github.com/avelichko/envoy-engine/internal/logger"
	"github.com/avelichko/envoy-engine/internal/middleware"
	"github.com/avelichko/envoy-engine/internal/services"
	"github.com/avelichko/envoy-engine/internal/storage"
	"github.com/avelichko/envoy-engine/pkg/content"
	"github.com/avelichko/envoy-engine/pkg/diplomacy"
	"github.com/avelichko/envoy-engine/pkg/engine"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Envoy Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"module", cfg.Module,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"ai_enabled", cfg.AIEnabled)

	var llmService services.LLMService
	if cfg.AIEnabled {
		switch strings.ToLower(cfg.LLMProvider) {
		case "anthropic":
			if cfg.AnthropicAPIKey == "" {
				log.Error("Anthropic API key is required when using anthropic provider")
				os.Exit(1)
			}
			llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
			log.Info("Using Anthropic LLM provider")
		case "proxy":
			if cfg.ProxyEndpoint == "" {
				log.Error("Proxy endpoint is required when using proxy provider")
				os.Exit(1)
			}
			llmService = services.NewProxyService(cfg.ProxyEndpoint, cfg.AnthropicAPIKey, cfg.ModelName)
			log.Info("Using OpenAI-compatible proxy provider", "endpoint", cfg.ProxyEndpoint)
		case "ollama":
			ollama := services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, log)
			initCtx, initCancel := context.WithTimeout(context.Background(), 15*time.Minute)
			if err := ollama.InitModel(initCtx); err != nil {
				initCancel()
				log.Error("Failed to initialize Ollama model", "error", err)
				os.Exit(1)
			}
			initCancel()
			llmService = ollama
			log.Info("Using Ollama LLM provider", "url", cfg.OllamaURL)
		default:
			log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"anthropic", "proxy", "ollama"})
			os.Exit(1)
		}
	} else {
		log.Info("AI dialogue disabled; using local keyword analysis")
	}

	store := content.NewStore(cfg.DataDir, log)
	eng, err := engine.New(engine.Config{
		Module:      cfg.Module,
		AIEnabled:   cfg.AIEnabled,
		FilterInput: cfg.FilterInput,
		MaxTokens:   cfg.MaxTokens,
		Guard: diplomacy.GuardConfig{
			SoftLockThreshold: cfg.SoftLockThreshold,
			HardLockThreshold: cfg.HardLockThreshold,
			SoftenedDelta:     cfg.SoftenedDelta,
		},
	}, store, llmService, log)
	if err != nil {
		log.Error("Failed to load narrative module", "module", cfg.Module, "error", err)
		os.Exit(1)
	}

	redisStorage := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := redisStorage.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(redisStorage, llmService, log)
	mux.Handle("/health", healthHandler)

	playthroughHandler := handlers.NewPlaythroughHandler(eng, redisStorage, log)
	mux.Handle("/v1/playthrough", playthroughHandler)
	mux.Handle("/v1/playthrough/", playthroughHandler)

	modulesHandler := handlers.NewModulesHandler(redisStorage, log)
	mux.Handle("/v1/modules", modulesHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := redisStorage.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
