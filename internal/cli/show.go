package cli

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// showConfig prints the effective configuration as a table.
func showConfig(globals *Globals) error {
	cfg := globals.Config
	source := globals.ConfigPath
	if source == "" {
		source = "(defaults)"
	}

	maxAttempts := "unlimited"
	if cfg.MaxAttempts > 0 {
		maxAttempts = strconv.Itoa(cfg.MaxAttempts)
	}
	maxDelay := cfg.Backoff.Max.String()
	if cfg.Backoff.Max == 0 {
		maxDelay = "none"
	}
	codes := make([]string, 0, len(cfg.Retry.ExitCodes))
	for _, c := range cfg.Retry.ExitCodes {
		codes = append(codes, strconv.Itoa(c))
	}

	rows := [][]string{
		{"config_file", source},
		{"ssh_path", cfg.SSHPath},
		{"max_attempts", maxAttempts},
		{"kill_timeout", cfg.KillTimeout.String()},
		{"backoff.initial", cfg.Backoff.Initial.String()},
		{"backoff.max", maxDelay},
		{"backoff.multiplier", strconv.FormatFloat(cfg.Backoff.Multiplier, 'g', -1, 64)},
		{"backoff.stable_after", cfg.Backoff.StableAfter.String()},
		{"retry.exit_codes", strings.Join(codes, ",")},
		{"retry.signals", strings.Join(cfg.Retry.Signals, ",")},
		{"verbose", strconv.FormatBool(cfg.Verbose)},
		{"quiet", strconv.FormatBool(cfg.Quiet)},
		{"tmux_notify", strconv.FormatBool(cfg.TmuxNotify)},
	}

	table := tablewriter.NewWriter(globals.Stdout)
	table.Header("Setting", "Value")
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
