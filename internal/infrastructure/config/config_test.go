package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "electrician", cfg.MongoDB)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "http://localhost:8090", cfg.DirectoryBaseURL)
	assert.Equal(t, 5*time.Second, cfg.DirectoryCacheTTL)
	assert.Equal(t, 15.0, cfg.DefaultRadiusKm)
	assert.Equal(t, time.Hour, cfg.RetentionWindow)
	assert.Equal(t, 300*time.Second, cfg.BackfillInterval)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_RADIUS_KM", "25.5")
	t.Setenv("RETENTION_WINDOW_MINUTES", "30")
	t.Setenv("REDIS_DB", "2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 25.5, cfg.DefaultRadiusKm)
	assert.Equal(t, 30*time.Minute, cfg.RetentionWindow)
	assert.Equal(t, 2, cfg.RedisDB)
}
