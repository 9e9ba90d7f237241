package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port          string
	GinMode       string
	DBDriver      string
	DBDSN         string
	DBLogLevel    string
	JWTSecret     []byte
	TokenTTL      time.Duration
	UploadDir     string
	MaxUploadSize int64
	CORSOrigin    string
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

const defaultJWTSecret = "food_ordering_super_secret_2024"

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", ""),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:         getEnv("DB_DSN", "food_ordering.db?_pragma=busy_timeout(5000)"),
		DBLogLevel:    strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),
		JWTSecret:     []byte(getEnv("JWT_SECRET", defaultJWTSecret)),
		TokenTTL:      getDurationEnv("TOKEN_TTL_HOURS", 24, time.Hour),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadSize: int64(getIntEnv("MAX_UPLOAD_MB", 5)) << 20,
		CORSOrigin:    getEnv("CORS_ORIGIN", "*"),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}
	if string(cfg.JWTSecret) == defaultJWTSecret {
		log.Println("⚠️ JWT_SECRET not set, using the built-in development secret")
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback int, unit time.Duration) time.Duration {
	return time.Duration(getIntEnv(key, fallback)) * unit
}
