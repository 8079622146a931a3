package config

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every config search path at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))
	t.Chdir(tmpDir)
	prev := systemDir
	systemDir = filepath.Join(tmpDir, "etc")
	t.Cleanup(func() { systemDir = prev })
	return tmpDir
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, "ssh", cfg.SSHPath)
	assert.False(t, cfg.Verbose)
	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.TmuxNotify)
	assert.Equal(t, 0, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.KillTimeout)
	assert.Equal(t, time.Second, cfg.Backoff.Initial)
	assert.Equal(t, time.Minute, cfg.Backoff.Max)
	assert.Equal(t, 2.0, cfg.Backoff.Multiplier)
	assert.Equal(t, 30*time.Second, cfg.Backoff.StableAfter)
	assert.Equal(t, []int{255}, cfg.Retry.ExitCodes)
	assert.Equal(t, []string{"SIGHUP", "SIGPIPE", "SIGKILL"}, cfg.Retry.Signals)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("returns defaults when no config file exists", func(t *testing.T) {
		isolate(t)

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Should have default values
		assert.Equal(t, Default(), cfg)
	})

	t.Run("reads the current directory", func(t *testing.T) {
		dir := isolate(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "goautossh.yaml"), []byte("max_attempts: 7\n"), 0o644))

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.MaxAttempts)
	})

	t.Run("falls back to the home dotfile", func(t *testing.T) {
		dir := isolate(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".goautossh.yaml"), []byte("quiet: true\n"), 0o644))

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Quiet)
		assert.Equal(t, filepath.Join(dir, ".goautossh.yaml"), ConfigFile())
	})

	t.Run("search order", func(t *testing.T) {
		dir := isolate(t)
		cwd := filepath.Join(dir, "goautossh.yaml")
		configDir, err := os.UserConfigDir()
		require.NoError(t, err)
		user := filepath.Join(configDir, "goautossh", "goautossh.yaml")
		dot := filepath.Join(dir, ".goautossh.yaml")
		system := filepath.Join(dir, "etc", "goautossh.yaml")

		files := []struct {
			path     string
			attempts int
		}{
			{system, 1},
			{dot, 2},
			{user, 3},
			{cwd, 4},
		}
		// each file added shadows all the ones added before it
		for _, f := range files {
			require.NoError(t, os.MkdirAll(filepath.Dir(f.path), 0o755))
			require.NoError(t, os.WriteFile(f.path, []byte(fmt.Sprintf("max_attempts: %d\n", f.attempts)), 0o644))

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, f.attempts, cfg.MaxAttempts, f.path)
			assert.Equal(t, f.path, ConfigFile())
		}
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		isolate(t)
		t.Setenv("GOAUTOSSH_SSH_PATH", "/opt/bin/ssh")
		t.Setenv("GOAUTOSSH_BACKOFF_MAX", "5m")
		t.Setenv("GOAUTOSSH_VERBOSE", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "/opt/bin/ssh", cfg.SSHPath)
		assert.Equal(t, 5*time.Minute, cfg.Backoff.Max)
		assert.True(t, cfg.Verbose)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("loads config from file", func(t *testing.T) {
		tmpDir := isolate(t)

		configContent := `
ssh_path: /usr/local/bin/ssh
quiet: true
tmux_notify: true
max_attempts: 5
kill_timeout: 3s
backoff:
  initial: 500ms
  max: 2m
  multiplier: 1.5
  stable_after: 1m
retry:
  exit_codes: [255, 255, 1]
  signals: [hup, SIGKILL]
`
		configPath := filepath.Join(tmpDir, "goautossh.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)

		assert.Equal(t, "/usr/local/bin/ssh", cfg.SSHPath)
		assert.True(t, cfg.Quiet)
		assert.True(t, cfg.TmuxNotify)
		assert.Equal(t, 5, cfg.MaxAttempts)
		assert.Equal(t, 3*time.Second, cfg.KillTimeout)
		assert.Equal(t, 500*time.Millisecond, cfg.Backoff.Initial)
		assert.Equal(t, 2*time.Minute, cfg.Backoff.Max)
		assert.Equal(t, 1.5, cfg.Backoff.Multiplier)
		assert.Equal(t, time.Minute, cfg.Backoff.StableAfter)
		assert.Equal(t, []int{255, 1}, cfg.Retry.ExitCodes)
		assert.Equal(t, []string{"HUP", "SIGKILL"}, cfg.Retry.Signals)

		sigs, err := cfg.RetrySignals()
		require.NoError(t, err)
		assert.Equal(t, []syscall.Signal{syscall.SIGHUP, syscall.SIGKILL}, sigs)
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0o644))

		cfg, err := LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("returns error for invalid values", func(t *testing.T) {
		tmpDir := isolate(t)
		configPath := filepath.Join(tmpDir, "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("retry:\n  signals: [SIGNOPE]\n"), 0o644))

		_, err := LoadFromFile(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "retry.signals")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty ssh path", func(c *Config) { c.SSHPath = " " }},
		{"negative attempts", func(c *Config) { c.MaxAttempts = -1 }},
		{"negative kill timeout", func(c *Config) { c.KillTimeout = -time.Second }},
		{"negative initial", func(c *Config) { c.Backoff.Initial = -time.Second }},
		{"negative max", func(c *Config) { c.Backoff.Max = -time.Second }},
		{"negative multiplier", func(c *Config) { c.Backoff.Multiplier = -1 }},
		{"negative stable", func(c *Config) { c.Backoff.StableAfter = -time.Second }},
		{"zero exit code", func(c *Config) { c.Retry.ExitCodes = []int{0} }},
		{"exit code out of range", func(c *Config) { c.Retry.ExitCodes = []int{256} }},
		{"unknown signal", func(c *Config) { c.Retry.Signals = []string{"SIGWHAT"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSupervisorConfig(t *testing.T) {
	cfg := Default()
	cfg.MaxAttempts = 4

	sc, err := cfg.Supervisor()
	require.NoError(t, err)
	assert.Equal(t, time.Second, sc.Backoff.Initial)
	assert.Equal(t, time.Minute, sc.Backoff.Max)
	assert.Equal(t, 2.0, sc.Backoff.Multiplier)
	assert.Equal(t, 30*time.Second, sc.StableAfter)
	assert.Equal(t, 4, sc.MaxAttempts)
	assert.Equal(t, 10*time.Second, sc.KillTimeout)
	assert.Equal(t, []int{255}, sc.Classifier.RetryExitCodes)
	assert.Equal(t, []syscall.Signal{syscall.SIGHUP, syscall.SIGPIPE, syscall.SIGKILL}, sc.Classifier.RetrySignals)
}
