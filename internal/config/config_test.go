package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scripthost/internal/core/observability/log"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scripthost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, log.LevelInfo, cfg.Level())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  encoding: console
  outputs: [stdout, /var/log/scripthost.log]
scripts:
  root: /srv/scripts
console:
  addr: 0.0.0.0:9000
  token: secret
  write_timeout: 2s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, log.LevelDebug, cfg.Level())
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, []string{"stdout", "/var/log/scripthost.log"}, cfg.Log.Outputs)
	assert.Equal(t, "/srv/scripts", cfg.Scripts.Root)
	assert.Equal(t, "0.0.0.0:9000", cfg.Console.Addr)
	assert.Equal(t, "secret", cfg.Console.Token)
	assert.Equal(t, 2*time.Second, cfg.Console.WriteTimeout)
	// untouched keys keep their defaults
	assert.True(t, cfg.Console.Enabled)
	assert.Equal(t, int64(64*1024), cfg.Console.MaxMessageSize)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "scripts:\n  root: from-file\n")
	t.Setenv("SCRIPTHOST_SCRIPTS_ROOT", "from-env")
	t.Setenv("SCRIPTHOST_LOG_LEVEL", "warn")
	t.Setenv("SCRIPTHOST_CONSOLE_ENABLED", "false")
	t.Setenv("SCRIPTHOST_SCRIPTS_SNAPSHOT_DIR", "/var/lib/scripthost")
	t.Setenv("SCRIPTHOST_CONSOLE_RATE_LIMIT", "5")
	t.Setenv("SCRIPTHOST_LOG_OUTPUTS", "stderr,host.log")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Scripts.Root)
	assert.Equal(t, "/var/lib/scripthost", cfg.Scripts.SnapshotDir)
	assert.Equal(t, 5, cfg.Console.RateLimit)
	assert.Equal(t, []string{"stderr", "host.log"}, cfg.Log.Outputs)
	assert.Equal(t, log.LevelWarn, cfg.Level())
	assert.False(t, cfg.Console.Enabled)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "unknown: true\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "log:\n  level: loud\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("SCRIPTHOST_CONSOLE_WRITE_TIMEOUT", "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidateConsole(t *testing.T) {
	cfg := Default()
	cfg.Console.Addr = ""
	cfg.Console.WriteTimeout = 0
	cfg.Console.RateLimit = -1
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "addr")
	assert.Contains(t, err.Error(), "timeout")
	assert.Contains(t, err.Error(), "rate limit")

	cfg.Console.Enabled = false
	assert.NoError(t, cfg.Validate())
}
