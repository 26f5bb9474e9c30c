package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRequiresDSN(t *testing.T) {
	Reset()
	os.Unsetenv("MERIDIAN_DATABASE_DSN")

	_, err := Get()
	require.Error(t, err)
}

func TestGetIsSingletonAndImmutable(t *testing.T) {
	Reset()
	os.Setenv("MERIDIAN_DATABASE_DSN", "postgres://localhost/meridian")
	defer os.Unsetenv("MERIDIAN_DATABASE_DSN")

	first, err := Get()
	require.NoError(t, err)

	os.Setenv("MERIDIAN_DATABASE_DSN", "postgres://changed/meridian")
	second, err := Get()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "postgres://localhost/meridian", second.DatabaseDSN)
}

func TestDefaults(t *testing.T) {
	Reset()
	os.Setenv("MERIDIAN_DATABASE_DSN", "postgres://localhost/meridian")
	defer os.Unsetenv("MERIDIAN_DATABASE_DSN")

	c, err := Get()
	require.NoError(t, err)
	assert.Equal(t, 3, c.HTTPMaxRetries)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.DryRun)
	assert.Equal(t, 15, c.RSSPollMinutes)
	assert.Equal(t, "0 0 7 * * *", c.DigestCron)
	assert.Equal(t, 0.2, c.LLMTemperature)
}
