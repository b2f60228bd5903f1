package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.Hostname)
}

func TestNewProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "super-secret")
	t.Setenv("PORT", "8123")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "super-secret", cfg.JWTSecret)
	assert.Equal(t, 8123, cfg.ServerPort)
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
}

func TestNewForTest(t *testing.T) {
	cfg := NewForTest()

	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.Equal(t, 0, cfg.ServerPort)
}
