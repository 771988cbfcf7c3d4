package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration, loaded from the environment
// with an optional .env file.
type Config struct {
	Addr         string
	DatabasePath string
	SecretKey    string
	TemplatesDir string
	StaticDir    string
	SessionTTL   time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	ttl := 24
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}

	return &Config{
		Addr:         ":" + getenv("PORT", "8080"),
		DatabasePath: getenv("DATABASE", filepath.Join("data", "willr.db")),
		SecretKey:    getenv("SECRET_KEY", "dev"),
		TemplatesDir: getenv("TEMPLATES_DIR", filepath.Join("web", "templates")),
		StaticDir:    getenv("STATIC_DIR", filepath.Join("web", "static")),
		SessionTTL:   time.Duration(ttl) * time.Hour,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
