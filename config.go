package main

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config carries process configuration, read from the environment with an
// optional .env file for development.
type Config struct {
	Port        string
	DatabaseDSN string
	JWTSecret   string
	// RedisAddr switches the code and reset-session stores to Redis when
	// set; empty keeps the in-process stores.
	RedisAddr     string
	RedisPassword string
	PhotoDir      string
}

func loadConfig(log *zap.Logger) Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", zap.Error(err))
	}

	cfg := Config{
		Port:          envOr("PORT", "8080"),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		PhotoDir:      envOr("PHOTO_DIR", "uploads"),
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "host=localhost user=postgres password=postgres dbname=delivery port=5432 sslmode=disable"
		log.Warn("DATABASE_DSN not set, using local development default")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-insecure-secret-change-me"
		log.Warn("JWT_SECRET not set, using insecure development default")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
