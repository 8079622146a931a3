package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vburojevic/goautossh/internal/config"
	"github.com/vburojevic/goautossh/internal/process"
	"github.com/vburojevic/goautossh/internal/supervisor"
)

// Main parses argv (without the program name), runs the supervisor and
// returns the process exit code.
func Main(argv []string, stdio Stdio) int {
	errGlobals := &Globals{Stdout: stdio.Stdout, Stderr: stdio.Stderr}

	// The option model does not depend on config values, so a probe
	// parser can tell which options consume the next token.
	probe, err := newParser(&CLI{}, config.Default(), stdio)
	if err != nil {
		outputErrorCommon(errGlobals, "INTERNAL", err.Error())
		return ExitInvalidFlags
	}
	takesValue := valueFlags(probe.Model.Node)
	own, sshArgs := SplitArgs(argv, func(name string) bool { return takesValue[name] })

	cfg, err := loadConfig(errGlobals, flagValue(own, "autossh-config"))
	if err != nil {
		return ExitInvalidFlags
	}

	var c CLI
	parser, err := newParser(&c, cfg, stdio)
	if err != nil {
		outputErrorCommon(errGlobals, "INTERNAL", err.Error())
		return ExitInvalidFlags
	}
	kctx, err := parser.Parse(own)
	if err != nil {
		outputErrorCommon(errGlobals, "INVALID_FLAGS", err.Error(), "run goautossh --autossh-help")
		return ExitInvalidFlags
	}
	if c.Help {
		_ = kctx.PrintUsage(false)
		return ExitOK
	}
	if err := validateFlags(errGlobals, &c); err != nil {
		return ExitInvalidFlags
	}
	if err := c.apply(cfg); err != nil {
		outputErrorCommon(errGlobals, "INVALID_FLAGS", err.Error())
		return ExitInvalidFlags
	}

	globals := NewGlobalsWithConfig(&c, cfg, stdio)
	defer func() { _ = globals.Logger().Sync() }()

	switch {
	case c.Version:
		printVersion(globals)
		return ExitOK
	case c.ShowConfig:
		if err := showConfig(globals); err != nil {
			outputErrorCommon(globals, "CONFIG", err.Error())
			return ExitInvalidFlags
		}
		return ExitOK
	case len(sshArgs) == 0:
		printUsage(globals.Stderr)
		return ExitNoSSHArgs
	}

	return c.Run(globals, sshArgs)
}

// Run supervises ssh with sshArgs until it exits for good.
func (c *CLI) Run(globals *Globals, sshArgs []string) int {
	scfg, err := globals.Config.Supervisor()
	if err != nil {
		outputErrorCommon(globals, "CONFIG", err.Error(), "check retry.signals in "+configHint(globals))
		return ExitInvalidFlags
	}

	// Subscribe before the first launch so no signal is lost in between.
	signals := make(chan os.Signal, 4)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	logger := globals.Logger()
	launcher := process.NewLauncher(globals.Config.SSHPath, logger)
	launcher.Stdin = globals.Stdin
	launcher.Stdout = globals.Stdout
	launcher.Stderr = globals.Stderr
	launcher.Terminal = process.NewTerminalGuard(globals.Stdin)

	notices := newNoticePrinter(globals)
	sup := supervisor.New(launcher, scfg,
		supervisor.WithLogger(logger),
		supervisor.WithRestartHook(notices.Restart),
	)

	globals.Debug("supervising %s with %d argument(s)", globals.Config.SSHPath, len(sshArgs))
	code, err := sup.Run(sshArgs, signals)

	var lerr *supervisor.LaunchError
	switch {
	case err == nil:
	case errors.As(err, &lerr):
		msg := fmt.Sprintf("cannot run %s: %v", globals.Config.SSHPath, lerr.Err)
		hint := "install OpenSSH or point --autossh-ssh at the client"
		switch {
		case process.IsNotFound(lerr):
			msg = fmt.Sprintf("SSH client executable not found: %s", globals.Config.SSHPath)
		case process.IsPermission(lerr):
			msg = fmt.Sprintf("SSH client is not executable: %s", globals.Config.SSHPath)
			hint = "check the file's execute permission or point --autossh-ssh at another client"
		}
		outputErrorCommon(globals, "LAUNCH_FAILED", msg, hint)
	case errors.Is(err, supervisor.ErrAttemptsExhausted):
		outputErrorCommon(globals, "ATTEMPTS_EXHAUSTED", "Exceeded maximum number of connection attempts",
			fmt.Sprintf("raise --autossh-max-connection-attempts (currently %d)", globals.Config.MaxAttempts))
	default:
		logger.Error("supervisor failed", zap.Error(err))
	}
	return code
}

// loadConfig reads path when set, otherwise the default locations. A broken
// default file only warns; an explicit one is an error.
func loadConfig(globals *Globals, path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			return nil, outputErrorCommon(globals, "CONFIG", fmt.Sprintf("load %s: %v", path, err))
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(globals.Stderr, "Warning: failed to load config: %v\n", err)
		return config.Default(), nil
	}
	return cfg, nil
}

func configHint(globals *Globals) string {
	if globals.ConfigPath != "" {
		return globals.ConfigPath
	}
	return "your configuration"
}
