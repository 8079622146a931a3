package cli

import "fmt"

// validateFlags rejects option values the config layer cannot express.
func validateFlags(globals *Globals, c *CLI) error {
	if c.MaxConnectionAttempts < 0 {
		return outputErrorCommon(globals, "INVALID_FLAGS",
			fmt.Sprintf("--autossh-max-connection-attempts must be >= 0, got %d", c.MaxConnectionAttempts),
			"use 0 for unlimited attempts")
	}
	if c.ReconnectDelay < 0 {
		return outputErrorCommon(globals, "INVALID_FLAGS",
			fmt.Sprintf("--autossh-reconnect-delay must be >= 0, got %g", c.ReconnectDelay))
	}
	if c.MaxReconnectDelay < 0 {
		return outputErrorCommon(globals, "INVALID_FLAGS",
			fmt.Sprintf("--autossh-max-reconnect-delay must be >= 0, got %g", c.MaxReconnectDelay),
			"use 0 to disable the cap")
	}
	if c.MaxReconnectDelay > 0 && c.ReconnectDelay > c.MaxReconnectDelay {
		return outputErrorCommon(globals, "INVALID_FLAGS",
			"--autossh-reconnect-delay exceeds --autossh-max-reconnect-delay",
			"raise the maximum or lower the initial delay")
	}
	if c.SSH == "" {
		return outputErrorCommon(globals, "INVALID_FLAGS", "--autossh-ssh must not be empty")
	}
	if c.Version && c.ShowConfig {
		return outputErrorCommon(globals, "INVALID_FLAGS",
			"--autossh-version cannot be combined with --autossh-show-config", "drop one of them")
	}
	return nil
}
