package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "voicegate", cfg.Engine.Name)
	assert.Equal(t, "14.4.0", cfg.Engine.Version)
	assert.Equal(t, "frozen", cfg.Engine.ReleaseStage)
	assert.Equal(t, ":8090", cfg.Server.Addr)
	assert.Equal(t, 10000, cfg.Server.MaxPromptChars)
	assert.Equal(t, "data/voice_contract.json", cfg.Contract.Path)
	assert.Equal(t, "data/voice_contract.lock", cfg.Contract.LockPath)
	assert.True(t, cfg.Contract.WatchDrift)
	assert.Equal(t, "data/sessions.db", cfg.Sessions.DatabasePath)
	assert.Equal(t, "release", cfg.Release.Dir)
	assert.False(t, cfg.Release.VerifyOnStartup)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicegate.yaml")
	content := []byte("server:\n  addr: \":9999\"\ncontract:\n  path: custom/contract.json\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "custom/contract.json", cfg.Contract.Path)
	assert.Equal(t, "voicegate", cfg.Engine.Name)
	assert.Equal(t, "data/sessions.db", cfg.Sessions.DatabasePath)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voicegate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "voicegate.yaml")

	cfg := DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:9000"
	cfg.Release.VerifyOnStartup = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VOICEGATE_ADDR", ":7070")
	t.Setenv("VOICEGATE_CONTRACT", "env/contract.json")
	t.Setenv("VOICEGATE_DB", "env/sessions.db")
	t.Setenv("VOICEGATE_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "voicegate.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "env/contract.json", cfg.Contract.Path)
	assert.Equal(t, "env/sessions.db", cfg.Sessions.DatabasePath)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestTimeoutAccessors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 10*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetWriteTimeout())
	assert.Equal(t, 10*time.Second, cfg.GetShutdownTimeout())

	cfg.Server.ReadTimeout = "2m"
	assert.Equal(t, 2*time.Minute, cfg.GetReadTimeout())

	cfg.Server.ReadTimeout = "bogus"
	assert.Equal(t, 10*time.Second, cfg.GetReadTimeout())
}

func TestValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing engine name", func(c *Config) { c.Engine.Name = "" }, "engine.name"},
		{"missing engine version", func(c *Config) { c.Engine.Version = "" }, "engine.version"},
		{"missing contract path", func(c *Config) { c.Contract.Path = "" }, "contract.path"},
		{"non-positive prompt cap", func(c *Config) { c.Server.MaxPromptChars = 0 }, "max_prompt_chars"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
