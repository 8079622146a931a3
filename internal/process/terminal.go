package process

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// TerminalGuard snapshots and restores the state of a terminal.
type TerminalGuard struct {
	mu    sync.Mutex
	fd    int
	tty   bool
	state *term.State
}

// NewTerminalGuard guards f. Non-terminals are accepted; Save and Restore
// are no-ops for them.
func NewTerminalGuard(f *os.File) *TerminalGuard {
	if f == nil {
		return &TerminalGuard{fd: -1}
	}
	fd := f.Fd()
	return &TerminalGuard{
		fd:  int(fd),
		tty: isatty.IsTerminal(fd),
	}
}

// IsTerminal reports whether the guarded file is a terminal.
func (g *TerminalGuard) IsTerminal() bool {
	return g.tty
}

// Save captures the current terminal state.
func (g *TerminalGuard) Save() {
	if !g.tty {
		return
	}
	st, err := term.GetState(g.fd)
	if err != nil {
		return
	}
	g.mu.Lock()
	g.state = st
	g.mu.Unlock()
}

// Restore puts back the state captured by the last Save.
func (g *TerminalGuard) Restore() error {
	g.mu.Lock()
	st := g.state
	g.mu.Unlock()
	if !g.tty || st == nil {
		return nil
	}
	return term.Restore(g.fd, st)
}
