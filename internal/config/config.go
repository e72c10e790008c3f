package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Google sign-in
	GoogleClientID string

	// Admin
	AdminEmail string

	// Streak accounting
	DayBoundaryTZ        string // IANA zone used to cut calendar days
	StreakSweepHours     int    // how often the stale-streak sweep runs
	StatsRefreshSeconds  int    // poll interval advertised to dashboard clients
	ImportWorkers        int

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                getEnvOrDefault("PORT", "8080"),
		Env:                 getEnvOrDefault("ENV", "development"),
		DatabaseURL:         mustGetEnv("DATABASE_URL"),
		RedisURL:            mustGetEnv("REDIS_URL"),
		JWTSecret:           mustGetEnv("JWT_SECRET"),
		GoogleClientID:      getEnvOrDefault("GOOGLE_CLIENT_ID", ""),
		AdminEmail:          getEnvOrDefault("ADMIN_EMAIL", ""),
		DayBoundaryTZ:       getEnvOrDefault("DAY_BOUNDARY_TZ", "UTC"),
		StreakSweepHours:    getEnvAsIntOrDefault("STREAK_SWEEP_HOURS", 24),
		StatsRefreshSeconds: getEnvAsIntOrDefault("STATS_REFRESH_SECONDS", 30),
		ImportWorkers:       getEnvAsIntOrDefault("IMPORT_WORKERS", 3),
		SMTPHost:            getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:            getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:            getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:            getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:            getEnvOrDefault("SMTP_FROM", "noreply@toex.app"),
		FrontendURL:         getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
