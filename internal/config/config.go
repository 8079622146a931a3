package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/vburojevic/goautossh/internal/backoff"
	"github.com/vburojevic/goautossh/internal/domain"
	"github.com/vburojevic/goautossh/internal/supervisor"
)

// Config holds application configuration
type Config struct {
	// Global settings
	SSHPath    string `mapstructure:"ssh_path"`
	Verbose    bool   `mapstructure:"verbose"`
	Quiet      bool   `mapstructure:"quiet"`
	TmuxNotify bool   `mapstructure:"tmux_notify"`

	// Restart policy
	MaxAttempts int           `mapstructure:"max_attempts"`
	KillTimeout time.Duration `mapstructure:"kill_timeout"`
	Backoff     BackoffConfig `mapstructure:"backoff"`
	Retry       RetryConfig   `mapstructure:"retry"`
}

// BackoffConfig holds the reconnect delay policy
type BackoffConfig struct {
	Initial     time.Duration `mapstructure:"initial"`
	Max         time.Duration `mapstructure:"max"`
	Multiplier  float64       `mapstructure:"multiplier"`
	StableAfter time.Duration `mapstructure:"stable_after"`
}

// RetryConfig lists the child outcomes treated as a dropped connection
type RetryConfig struct {
	ExitCodes []int    `mapstructure:"exit_codes"`
	Signals   []string `mapstructure:"signals"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		SSHPath:     "ssh",
		KillTimeout: 10 * time.Second,
		Backoff: BackoffConfig{
			Initial:     time.Second,
			Max:         time.Minute,
			Multiplier:  2,
			StableAfter: 30 * time.Second,
		},
		Retry: RetryConfig{
			ExitCodes: []int{255},
			Signals:   []string{"SIGHUP", "SIGPIPE", "SIGKILL"},
		},
	}
}

// systemDir holds the machine-wide config file.
var systemDir = "/etc/goautossh"

// Load loads configuration from the first file ConfigFile finds, then
// applies environment overrides.
func Load() (*Config, error) {
	v := newViper()

	if path := ConfigFile(); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file. Environment
// variables still override it.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

// searchPaths lists candidate config files, highest precedence first:
// current directory, user config dir, home dotfile, system dir.
func searchPaths() []string {
	var paths []string
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, "goautossh.yaml"))
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "goautossh", "goautossh.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".goautossh.yaml"))
	}
	return append(paths, filepath.Join(systemDir, "goautossh.yaml"))
}

// ConfigFile returns the path to the config file Load would read, or ""
// when there is none.
func ConfigFile() string {
	for _, path := range searchPaths() {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
	}
	return ""
}

func newViper() *viper.Viper {
	v := viper.New()

	// Environment variables
	v.SetEnvPrefix("GOAUTOSSH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Set defaults
	cfg := Default()
	v.SetDefault("ssh_path", cfg.SSHPath)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("quiet", cfg.Quiet)
	v.SetDefault("tmux_notify", cfg.TmuxNotify)
	v.SetDefault("max_attempts", cfg.MaxAttempts)
	v.SetDefault("kill_timeout", cfg.KillTimeout)
	v.SetDefault("backoff.initial", cfg.Backoff.Initial)
	v.SetDefault("backoff.max", cfg.Backoff.Max)
	v.SetDefault("backoff.multiplier", cfg.Backoff.Multiplier)
	v.SetDefault("backoff.stable_after", cfg.Backoff.StableAfter)
	v.SetDefault("retry.exit_codes", cfg.Retry.ExitCodes)
	v.SetDefault("retry.signals", cfg.Retry.Signals)

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := Default()
	// slices come from viper's defaults; decoding into a non-empty slice
	// would merge instead of replace
	cfg.Retry = RetryConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.Retry.ExitCodes = lo.Uniq(cfg.Retry.ExitCodes)
	cfg.Retry.Signals = lo.Uniq(lo.Map(cfg.Retry.Signals, func(s string, _ int) string {
		return strings.ToUpper(strings.TrimSpace(s))
	}))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.SSHPath) == "":
		return fmt.Errorf("ssh_path must not be empty")
	case c.MaxAttempts < 0:
		return fmt.Errorf("max_attempts must be >= 0, got %d", c.MaxAttempts)
	case c.KillTimeout < 0:
		return fmt.Errorf("kill_timeout must be >= 0, got %s", c.KillTimeout)
	case c.Backoff.Initial < 0:
		return fmt.Errorf("backoff.initial must be >= 0, got %s", c.Backoff.Initial)
	case c.Backoff.Max < 0:
		return fmt.Errorf("backoff.max must be >= 0, got %s", c.Backoff.Max)
	case c.Backoff.Multiplier < 0:
		return fmt.Errorf("backoff.multiplier must be >= 0, got %g", c.Backoff.Multiplier)
	case c.Backoff.StableAfter < 0:
		return fmt.Errorf("backoff.stable_after must be >= 0, got %s", c.Backoff.StableAfter)
	}
	for _, code := range c.Retry.ExitCodes {
		if code <= 0 || code > 255 {
			return fmt.Errorf("retry.exit_codes: %d is not a failing exit status", code)
		}
	}
	if _, err := c.RetrySignals(); err != nil {
		return err
	}
	return nil
}

// RetrySignals parses Retry.Signals.
func (c *Config) RetrySignals() ([]syscall.Signal, error) {
	sigs := make([]syscall.Signal, 0, len(c.Retry.Signals))
	for _, name := range c.Retry.Signals {
		sig, err := domain.ParseSignal(name)
		if err != nil {
			return nil, fmt.Errorf("retry.signals: %w", err)
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// Supervisor converts the configuration into a restart policy.
func (c *Config) Supervisor() (supervisor.Config, error) {
	sigs, err := c.RetrySignals()
	if err != nil {
		return supervisor.Config{}, err
	}
	return supervisor.Config{
		Backoff: backoff.Policy{
			Initial:    c.Backoff.Initial,
			Max:        c.Backoff.Max,
			Multiplier: c.Backoff.Multiplier,
		},
		StableAfter: c.Backoff.StableAfter,
		MaxAttempts: c.MaxAttempts,
		KillTimeout: c.KillTimeout,
		Classifier: supervisor.Classifier{
			RetryExitCodes: c.Retry.ExitCodes,
			RetrySignals:   sigs,
		},
	}, nil
}
