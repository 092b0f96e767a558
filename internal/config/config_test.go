package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("CORS_ORIGIN", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 50, cfg.NotificationLimit)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 300*time.Second, cfg.UserCacheTTL)
	assert.Empty(t, cfg.CORSOrigins, "no origin is trusted by default")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("PAGE_SIZE", "5")
	t.Setenv("NOTIFICATION_LIMIT", "not-a-number")
	t.Setenv("CORS_ORIGIN", "chrome-extension://abc, ,https://notes.example.com")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 5, cfg.PageSize)
	assert.Equal(t, 50, cfg.NotificationLimit, "invalid values fall back")
	assert.Equal(t, []string{"chrome-extension://abc", "https://notes.example.com"}, cfg.CORSOrigins)
}
