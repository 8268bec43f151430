package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromViper(New())
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DatabaseDriver)
	assert.Equal(t, "data/studytrack.db", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddress)
	assert.Equal(t, 6, cfg.ReviewHour)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Empty(t, cfg.AdminUserIDs)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/study?sslmode=disable")
	t.Setenv("REVIEW_HOUR", "8")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ADMIN_USER_IDS", "12, 34")
	t.Setenv("ENABLE_SCHEDULER", "false")

	cfg, err := FromViper(New())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 8, cfg.ReviewHour)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.SchedulerEnabled)
	assert.True(t, cfg.IsAdmin(12))
	assert.True(t, cfg.IsAdmin(34))
	assert.False(t, cfg.IsAdmin(56))
}

func TestInvalidSettings(t *testing.T) {
	tests := map[string][2]string{
		"driver":   {"DATABASE_DRIVER", "mysql"},
		"hour":     {"REVIEW_HOUR", "24"},
		"timezone": {"TIMEZONE", "Mars/Olympus"},
		"admins":   {"ADMIN_USER_IDS", "1,abc"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromViper(New())
			assert.Error(t, err)
		})
	}
}
