package cli

import "fmt"

// Set at build time with -ldflags "-X ...cli.Version=... -X ...cli.Commit=...".
var (
	Version = "dev"
	Commit  = "none"
)

func printVersion(globals *Globals) {
	fmt.Fprintf(globals.Stdout, "goautossh version %s (%s)\n", Version, Commit)
}
