package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port         string
	Version      string
	StoreBackend string
	DatabaseURL  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string

	FactoryURL     string
	FactoryAPIKey  string
	FactoryTimeout time.Duration

	AdminName     string
	AdminEmail    string
	AdminPassword string

	CORSOrigins []string
	LogLevel    string
	LogFormat   string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:          fallback(os.Getenv("PORT"), "8080"),
		Version:       fallback(os.Getenv("SERVICE_VERSION"), "1.0.0"),
		StoreBackend:  fallback(os.Getenv("STORE_BACKEND"), "postgres"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisAddr:     fallback(os.Getenv("REDIS_ADDR"), "localhost:6379"),
		RedisPassword: strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:     fallback(os.Getenv("JWT_ISSUER"), "pizza-service"),
		FactoryURL:    fallback(os.Getenv("FACTORY_URL"), "https://pizza-factory.example.com"),
		FactoryAPIKey: strings.TrimSpace(os.Getenv("FACTORY_API_KEY")),
		AdminName:     fallback(os.Getenv("ADMIN_NAME"), "admin"),
		AdminEmail:    fallback(os.Getenv("ADMIN_EMAIL"), "a@jwt.com"),
		AdminPassword: fallback(os.Getenv("ADMIN_PASSWORD"), "admin"),
		CORSOrigins:   parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:      fallback(os.Getenv("LOG_LEVEL"), "info"),
		LogFormat:     fallback(os.Getenv("LOG_FORMAT"), "json"),
	}

	if db, err := strconv.Atoi(fallback(os.Getenv("REDIS_DB"), "0")); err == nil {
		cfg.RedisDB = db
	}

	seconds := fallback(os.Getenv("FACTORY_TIMEOUT_SECONDS"), "10")
	if timeout, err := strconv.Atoi(seconds); err == nil && timeout > 0 {
		cfg.FactoryTimeout = time.Duration(timeout) * time.Second
	} else {
		cfg.FactoryTimeout = 10 * time.Second
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.StoreBackend == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
