package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.ServerPort)
	require.Equal(t, "./parley.db", cfg.DatabasePath)
	require.Equal(t, 50, cfg.HistoryLimit)
	require.False(t, cfg.GoogleEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9999")
	t.Setenv("DATABASE_PATH", "/tmp/chat.db")
	t.Setenv("HISTORY_LIMIT", "25")
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "csecret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.ServerPort)
	require.Equal(t, "/tmp/chat.db", cfg.DatabasePath)
	require.Equal(t, 25, cfg.HistoryLimit)
	require.True(t, cfg.GoogleEnabled())
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}
