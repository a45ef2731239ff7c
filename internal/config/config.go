// Package config loads platform configuration from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/signalbridge/platform/internal/apperr"
)

// Config holds application configuration, mirroring the environment surface
// documented in SPEC_FULL.md §6.
type Config struct {
	DatabaseURL         string
	Port                int
	LogLevel            string
	DevMode             bool
	TelegramAPIID       string
	TelegramAPIHash     string
	TelegramPhone       string
	TelegramBotToken    string
	MT5Path             string
	MT5ServiceURL       string
	LLMModel            string
	LLMEndpoint         string
	JWTSecretKey        string
	MasterEncryptionKey string
	SyncIntervalSeconds int
	HeartbeatSeconds    int
}

// Load reads configuration from environment variables, loading an optional
// .env file first. Missing DatabaseURL or MasterEncryptionKey is a Fatal
// error per §7.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		Port:                getEnvAsInt("PORT", 8080),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		TelegramAPIID:       getEnv("TELEGRAM_API_ID", ""),
		TelegramAPIHash:     getEnv("TELEGRAM_API_HASH", ""),
		TelegramPhone:       getEnv("TELEGRAM_PHONE", ""),
		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		MT5Path:             getEnv("MT5_PATH", ""),
		MT5ServiceURL:       getEnv("MT5_SERVICE_URL", "http://localhost:9100"),
		LLMModel:            getEnv("LLM_MODEL", ""),
		LLMEndpoint:         getEnv("LLM_ENDPOINT", ""),
		JWTSecretKey:        getEnv("JWT_SECRET_KEY", ""),
		MasterEncryptionKey: getEnv("MASTER_ENCRYPTION_KEY", ""),
		SyncIntervalSeconds: getEnvAsInt("SYNC_INTERVAL_SECONDS", 5),
		HeartbeatSeconds:    getEnvAsInt("HEARTBEAT_SECONDS", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, apperr.Fatal("DATABASE_URL is required", nil)
	}
	if len(cfg.MasterEncryptionKey) < 32 {
		return nil, apperr.Fatal("MASTER_ENCRYPTION_KEY must be at least 32 characters", nil)
	}
	if cfg.JWTSecretKey == "" {
		cfg.JWTSecretKey = "dev-secret-change-in-production"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
