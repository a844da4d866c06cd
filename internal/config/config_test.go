package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WC_BASE_URL", "")
	t.Setenv("PROGRESS_BACKEND", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, "gorm", cfg.ProgressBackend)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.False(t, cfg.HasRemote())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WC_BASE_URL", "https://shop.example")
	t.Setenv("WC_CONSUMER_KEY", "ck_1")
	t.Setenv("WC_CONSUMER_SECRET", "cs_1")
	t.Setenv("REMOTE_TIMEOUT", "3s")
	t.Setenv("PROGRESS_BACKEND", " Pebble ")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.HasRemote())
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, "pebble", cfg.ProgressBackend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("REMOTE_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}
