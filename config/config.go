package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all runtime settings, loaded once at startup.
type Config struct {
	Port        string
	DatabaseURL string // empty: in-memory whitelist store

	GeminiAPIKey string
	GeminiModel  string

	LookupTimeout       time.Duration // per evidence lookup (whois, TLS, DNS)
	CacheTTL            time.Duration // registration lookup cache
	BatchMaxConcurrency int           // default cap for batch fan-out
	AIRequestsPerMinute int           // analyzer client rate limit
}

func Load() Config {
	return Config{
		Port:        getenv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-2.0-flash"),

		LookupTimeout:       getenvDuration("LOOKUP_TIMEOUT", 5*time.Second),
		CacheTTL:            getenvDuration("CACHE_TTL", 24*time.Hour),
		BatchMaxConcurrency: getenvInt("BATCH_MAX_CONCURRENCY", 5),
		AIRequestsPerMinute: getenvInt("AI_REQUESTS_PER_MINUTE", 15),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		if _, err := fmt.Sscanf(v, "%d", &out); err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
