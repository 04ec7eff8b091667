package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config is the process configuration, read once from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string
	DataDir  string
	Module   string

	LLMProvider     string
	ModelName       string
	AnthropicAPIKey string
	ProxyEndpoint   string
	OllamaURL       string
	AIEnabled       bool
	FilterInput     bool
	MaxTokens       int

	SoftLockThreshold int
	HardLockThreshold int
	SoftenedDelta     int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		RedisURL: getEnv("REDIS_URL", "localhost:6379"),
		DataDir:  getEnv("DATA_DIR", "./data"),
		Module:   getEnv("MODULE", "winter_summit"),

		LLMProvider:     getEnv("LLM_PROVIDER", "anthropic"),
		ModelName:       getEnv("MODEL_NAME", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		ProxyEndpoint:   getEnv("PROXY_ENDPOINT", ""),
		OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
		AIEnabled:       getEnvBool("AI_ENABLED", true),
		FilterInput:     getEnvBool("FILTER_INPUT", true),
		MaxTokens:       getEnvInt("MAX_TOKENS", 600),

		SoftLockThreshold: getEnvInt("SOFT_LOCK_THRESHOLD", -40),
		HardLockThreshold: getEnvInt("HARD_LOCK_THRESHOLD", -80),
		SoftenedDelta:     getEnvInt("SOFTENED_DELTA", -3),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
