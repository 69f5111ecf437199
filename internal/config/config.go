package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DatabaseURL string // empty means in-memory storage
	LogLevel    string
}

// Load reads .env (if present) then the environment.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:     ":8080",
		LogLevel: "info",
	}
	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}
