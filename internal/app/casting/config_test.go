package casting_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casting-intake/internal/app/casting"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t, casting.ConfigFileEnv, "PORT", "REPO_BACKEND", "SESSION_TTL", "SUBMIT_WAIT_MAX", "CHANNEL_PROVIDER", "PROVIDER_RPS")

	cfg, err := casting.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "memory", cfg.RepoBackend)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 60*time.Second, cfg.SessionSweepInterval)
	assert.Equal(t, "bunny", cfg.UploadProvider)
	assert.Equal(t, "bunny", cfg.ChannelProvider)
	assert.Equal(t, 5, cfg.ChannelMaxAttempts)
	assert.Equal(t, time.Second, cfg.ChannelInitialBackoff)
	assert.Equal(t, 15*time.Second, cfg.SubmitWaitMax)
	assert.Equal(t, 5.0, cfg.ProviderRPS)
	assert.Equal(t, 5, cfg.RecheckMaxAttempts)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadConfig_EnvDurations(t *testing.T) {
	clearEnv(t, casting.ConfigFileEnv)
	t.Setenv("SESSION_TTL", "90s")
	t.Setenv("SUBMIT_WAIT_MAX", "2500")
	t.Setenv("CHANNEL_INITIAL_BACKOFF", "not-a-duration")

	cfg, err := casting.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.SessionTTL)
	assert.Equal(t, 2500*time.Millisecond, cfg.SubmitWaitMax)
	assert.Equal(t, time.Second, cfg.ChannelInitialBackoff)
}

func TestLoadConfig_TOMLFileBelowEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "casting.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = 8081
repo_backend = "postgres"
submit_wait_max = "20s"
default_channel_id = "fallback-playlist"

[bunny_stream]
library_id = "lib-from-file"

[bunny_video]
api_key = "key-from-file"
`), 0o644))

	t.Setenv(casting.ConfigFileEnv, path)
	clearEnv(t, "PORT", "SUBMIT_WAIT_MAX", "DEFAULT_CHANNEL_ID", "BUNNY_STREAM_LIBRARY_ID", "BUNNY_VIDEO_API_KEY")
	t.Setenv("REPO_BACKEND", "mysql")

	cfg, err := casting.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "mysql", cfg.RepoBackend, "env wins over the file")
	assert.Equal(t, 20*time.Second, cfg.SubmitWaitMax)
	assert.Equal(t, "fallback-playlist", cfg.DefaultChannelID)
	assert.Equal(t, "lib-from-file", cfg.Credentials.BunnyLibraryID)
	assert.Equal(t, "key-from-file", cfg.Credentials.BunnyAPIKey)
}

func TestLoadConfig_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = ="), 0o644))
	t.Setenv(casting.ConfigFileEnv, path)

	_, err := casting.LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_MissingTOML(t *testing.T) {
	t.Setenv(casting.ConfigFileEnv, filepath.Join(t.TempDir(), "nope.toml"))

	_, err := casting.LoadConfig()
	require.Error(t, err)
}
