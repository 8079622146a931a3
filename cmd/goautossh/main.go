package main

import (
	"fmt"
	"os"

	"github.com/vburojevic/goautossh/internal/cli"
)

const quickStart = `goautossh - keep an ssh session alive across network drops

Quick start:
  goautossh user@host                           Like ssh, but reconnects on failure
  goautossh user@host -t tmux new -A -s main    Reattach a remote tmux session
  goautossh --autossh-max-connection-attempts 5 host

For help:
  goautossh --autossh-help                      All supervisor options
  goautossh --autossh-show-config               Effective configuration
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		os.Exit(cli.ExitNoSSHArgs)
	}

	os.Exit(cli.Main(os.Args[1:], cli.OSStdio()))
}
