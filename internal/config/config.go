package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort       string
	WSPort         string // realtime panel listener, empty disables it
	DatabaseDriver string // sqlite | postgres
	DatabaseDSN    string
	JWTSecret      string
	CORSOrigins    string
	PublicBaseURL  string // menu links printed on the table QR codes
	RedisURL       string
	SeedDefaults   bool
}

var (
	errMissingSecret = errors.New("JWT_SECRET is not set")
	errShortSecret   = errors.New("JWT_SECRET must be at least 32 characters")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func Load() *Config {
	// .env is optional, real environment wins
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env")
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8000"),
		WSPort:         os.Getenv("WS_PORT"),
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)),
		DatabaseDSN:    getEnv("DATABASE_DSN", "padaria.db"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "*"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8000"), "/"),
		RedisURL:       getEnv("REDIS_URL", ""),
		SeedDefaults:   parseBool(getEnv("SEED_DEFAULTS", "false")),
	}
	if _, set := os.LookupEnv("WS_PORT"); !set {
		cfg.WSPort = "8001"
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
	if cfg.DatabaseDriver == DriverSQLite && cfg.DatabaseDSN == "padaria.db" {
		log.Println("[WARN] DATABASE_DSN not set, using ./padaria.db")
	}
	if cfg.CORSOrigins == "*" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS not set, allowing every origin")
	}

	return cfg
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errMissingSecret
	}
	if len(c.JWTSecret) < 32 {
		return errShortSecret
	}
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("DATABASE_DRIVER %q is not supported (use sqlite or postgres)", c.DatabaseDriver)
	}
	return nil
}

// CORSOriginList returns the configured origins trimmed, joined back the way fiber expects.
func (c *Config) CORSOriginList() string {
	origins := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
