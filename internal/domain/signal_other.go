//go:build windows

package domain

import (
	"fmt"
	"strings"
	"syscall"
)

// signalNames covers the signals the syscall package defines here.
var signalNames = map[string]syscall.Signal{
	"SIGHUP":  syscall.SIGHUP,
	"SIGINT":  syscall.SIGINT,
	"SIGKILL": syscall.SIGKILL,
	"SIGPIPE": syscall.SIGPIPE,
	"SIGTERM": syscall.SIGTERM,
}

// ParseSignal accepts "SIGHUP", "HUP" or "hup". Only the signals in
// signalNames are known.
func ParseSignal(name string) (syscall.Signal, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	if sig, ok := signalNames[name]; ok {
		return sig, nil
	}
	return 0, fmt.Errorf("unknown signal %q", name)
}

// SignalName returns the conventional name ("SIGHUP") of sig.
func SignalName(sig syscall.Signal) string {
	for name, s := range signalNames {
		if s == sig {
			return name
		}
	}
	return fmt.Sprintf("signal(%d)", int(sig))
}
