package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/vburojevic/goautossh/internal/config"
)

// Exit codes of the supervisor itself. Child and launch failures use the
// codes the supervisor package reports.
const (
	ExitOK           = 0
	ExitInvalidFlags = 2
	ExitNoSSHArgs    = 255
)

const description = `Keep an interactive ssh session alive across network drops.

Every argument that does not start with --autossh- is passed to ssh
unchanged. When ssh exits because the connection was lost it is started
again after a growing delay; a clean exit or any other failure ends
goautossh with ssh's exit code.`

// CLI holds the supervisor's own options. Defaults come from the config
// file through kong vars, so explicit flags always win.
type CLI struct {
	MaxConnectionAttempts int     `name:"autossh-max-connection-attempts" default:"${config_max_attempts}" placeholder:"N" help:"Maximum number of consecutive failed connection attempts before giving up (0 = unlimited)"`
	ReconnectDelay        float64 `name:"autossh-reconnect-delay" default:"${config_reconnect_delay}" placeholder:"SECONDS" help:"Delay before the first reconnection attempt; grows on each consecutive failure"`
	MaxReconnectDelay     float64 `name:"autossh-max-reconnect-delay" default:"${config_max_reconnect_delay}" placeholder:"SECONDS" help:"Upper bound for the reconnection delay (0 = no cap)"`
	SSH                   string  `name:"autossh-ssh" default:"${config_ssh}" placeholder:"PATH" help:"SSH client executable"`
	Config                string  `name:"autossh-config" placeholder:"FILE" help:"Read configuration from FILE instead of the default locations"`
	Verbose               bool    `name:"autossh-verbose" default:"${config_verbose}" help:"Enable verbose logging output"`
	Quiet                 bool    `name:"autossh-quiet" default:"${config_quiet}" help:"Do not print reconnect notices"`
	TmuxNotify            bool    `name:"autossh-tmux-notify" default:"${config_tmux_notify}" help:"Also show reconnect notices in the tmux status line"`
	ShowConfig            bool    `name:"autossh-show-config" help:"Print the effective configuration and exit"`
	Version               bool    `name:"autossh-version" help:"Print version and exit"`
	Help                  bool    `name:"autossh-help" help:"Show this help and exit"`
}

// Stdio is the set of streams the supervisor and its child share.
type Stdio struct {
	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer
}

// OSStdio returns the process's own streams.
func OSStdio() Stdio {
	return Stdio{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Globals carries resolved settings and streams into command execution.
type Globals struct {
	Verbose bool
	Quiet   bool
	Stdin   *os.File
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config

	// ConfigPath is the file the configuration came from, if any.
	ConfigPath string

	logger *zap.Logger
}

// NewGlobalsWithConfig builds Globals from parsed flags and the config
// they were applied to.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config, stdio Stdio) *Globals {
	g := &Globals{
		Verbose: cfg.Verbose,
		Quiet:   cfg.Quiet,
		Stdin:   stdio.Stdin,
		Stdout:  stdio.Stdout,
		Stderr:  stdio.Stderr,
		Config:  cfg,
	}
	if c != nil && c.Config != "" {
		g.ConfigPath = c.Config
	} else {
		g.ConfigPath = config.ConfigFile()
	}
	g.logger = newLogger(g)
	return g
}

// Logger returns the structured logger (a no-op unless verbose).
func (g *Globals) Logger() *zap.Logger {
	if g == nil || g.logger == nil {
		return zap.NewNop()
	}
	return g.logger
}

// Debug logs a formatted debug message when verbose.
func (g *Globals) Debug(format string, args ...interface{}) {
	g.Logger().Sugar().Debugf(format, args...)
}

// apply copies flag values onto cfg.
func (c *CLI) apply(cfg *config.Config) error {
	cfg.MaxAttempts = c.MaxConnectionAttempts
	cfg.Backoff.Initial = seconds(c.ReconnectDelay)
	cfg.Backoff.Max = seconds(c.MaxReconnectDelay)
	cfg.SSHPath = c.SSH
	cfg.Verbose = c.Verbose
	cfg.Quiet = c.Quiet
	cfg.TmuxNotify = c.TmuxNotify
	return cfg.Validate()
}

func newParser(c *CLI, cfg *config.Config, stdio Stdio) (*kong.Kong, error) {
	return kong.New(c,
		kong.Name("goautossh"),
		kong.Description(description),
		kong.NoDefaultHelp(),
		kong.Writers(stdio.Stdout, stdio.Stderr),
		kong.Exit(func(int) {}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		configVars(cfg),
	)
}

// configVars exposes config values as flag defaults
func configVars(cfg *config.Config) kong.Vars {
	return kong.Vars{
		"config_max_attempts":        strconv.Itoa(cfg.MaxAttempts),
		"config_reconnect_delay":     formatSeconds(cfg.Backoff.Initial),
		"config_max_reconnect_delay": formatSeconds(cfg.Backoff.Max),
		"config_ssh":                 cfg.SSHPath,
		"config_verbose":             strconv.FormatBool(cfg.Verbose),
		"config_quiet":               strconv.FormatBool(cfg.Quiet),
		"config_tmux_notify":         strconv.FormatBool(cfg.TmuxNotify),
	}
}

// valueFlags lists the own options that take a separate value token.
func valueFlags(model *kong.Node) map[string]bool {
	out := map[string]bool{}
	if model == nil {
		return out
	}
	for _, group := range model.AllFlags(true) {
		for _, f := range group {
			if f == nil || f.IsBool() {
				continue
			}
			out[f.Name] = true
		}
	}
	return out
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: goautossh [--autossh-* options] [ssh arguments]")
	fmt.Fprintln(w, "run 'goautossh --autossh-help' for the list of options")
}
