package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v, "/cache/eduvision")

	config := configFromViper(v)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/openai/", config.GenerationBaseURL)
	assert.Equal(t, "gpt-4o-mini", config.ChatModel)
	assert.Equal(t, CacheBackendFile, config.CacheBackend)
	assert.Equal(t, "/cache/eduvision/artifacts", config.ArtifactsDir)
	assert.Equal(t, 8000, config.Port)
	assert.Equal(t, DefaultTranscriptWorkers, config.TranscriptWorkers)
	assert.Equal(t, 2*time.Minute, config.ProviderTimeout)
	assert.Equal(t, DefaultAllowedOrigins, config.AllowedOrigins)
	assert.False(t, config.DedupeInflight)
	assert.True(t, config.MCPLogEnabled)
}

func TestEmbeddedConfigMatchesDefaults(t *testing.T) {
	data, err := defaultFS.ReadFile("config.toml")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	v := viper.New()
	setDefaults(v, "/cache/eduvision")
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	fromFile := configFromViper(v)

	d := viper.New()
	setDefaults(d, "/cache/eduvision")
	assert.Equal(t, configFromViper(d), fromFile)
}

func TestEnsureDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "eduvision")

	require.NoError(t, EnsureDefaultConfig(dir))
	path := filepath.Join(dir, "config.toml")
	assert.FileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte("port = 9000\n"), 0644))
	require.NoError(t, EnsureDefaultConfig(dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "port = 9000\n", string(data), "existing config is never overwritten")
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(&Config{CacheBackend: CacheBackendFile, ArtifactsDir: t.TempDir()}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	mr := miniredis.RunT(t)
	store, err = NewStore(&Config{CacheBackend: CacheBackendRedis, RedisAddr: mr.Addr()}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)

	_, err = NewStore(&Config{CacheBackend: "memcached"}, discardLogger())
	assert.Error(t, err)
}
