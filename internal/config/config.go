package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port          string
	StoreDriver   string // postgres, sqlite or memory
	DatabaseURL   string
	SessionSecret string

	// Origins allowed to make credentialed requests, e.g. chrome-extension://<id>.
	// Empty allows none.
	CORSOrigins []string

	// Redis relay is disabled when empty
	RedisURL     string
	RedisChannel string

	PageSize          int
	MaxPageSize       int
	NotificationLimit int

	UserCacheSize int
	UserCacheTTL  time.Duration
}

func Load() Config {
	return Config{
		Port:              getenv("PORT", "8080"),
		StoreDriver:       getenv("STORE_DRIVER", "postgres"),
		DatabaseURL:       getenv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=pagenotes port=5432 sslmode=disable"),
		SessionSecret:     getenv("SESSION_SECRET", "secret_key_change_me"),
		CORSOrigins:       getenvList("CORS_ORIGIN"),
		RedisURL:          getenv("REDIS_URL", ""),
		RedisChannel:      getenv("REDIS_CHANNEL", "pagenotes:events"),
		PageSize:          getenvInt("PAGE_SIZE", 20),
		MaxPageSize:       getenvInt("MAX_PAGE_SIZE", 100),
		NotificationLimit: getenvInt("NOTIFICATION_LIMIT", 50),
		UserCacheSize:     getenvInt("USER_CACHE_SIZE", 500),
		UserCacheTTL:      time.Duration(getenvInt("USER_CACHE_TTL_SECONDS", 300)) * time.Second,
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

// getenvList splits a comma separated value, dropping blanks.
func getenvList(key string) []string {
	var values []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
