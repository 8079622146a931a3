package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/vburojevic/goautossh/internal/domain"
	"github.com/vburojevic/goautossh/internal/tmux"
)

// displayer is the part of tmux.Notifier notices use.
type displayer interface {
	Display(message string) error
}

// noticePrinter reports reconnects to the user while ssh owns the screen.
type noticePrinter struct {
	w      io.Writer
	quiet  bool
	style  lipgloss.Style
	tmux   displayer
	logger *zap.Logger
}

func newNoticePrinter(globals *Globals) *noticePrinter {
	r := lipgloss.NewRenderer(globals.Stderr)
	p := &noticePrinter{
		w:      globals.Stderr,
		quiet:  globals.Quiet,
		style:  r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		logger: globals.Logger(),
	}
	if globals.Config != nil && globals.Config.TmuxNotify {
		n, err := tmux.NewNotifier()
		if err != nil {
			p.logger.Debug("tmux notices disabled", zap.Error(err))
		} else {
			p.tmux = n
		}
	}
	return p
}

// Restart is the supervisor's restart hook.
func (p *noticePrinter) Restart(r domain.Restart) {
	msg := formatRestart(r)
	if !p.quiet {
		// leading CR: the terminal may still be in raw mode mid-line
		fmt.Fprintf(p.w, "\r%s\n", p.style.Render(msg))
	}
	if p.tmux != nil {
		if err := p.tmux.Display(msg); err != nil {
			p.logger.Debug("tmux notice failed", zap.Error(err))
		}
	}
}

func formatRestart(r domain.Restart) string {
	return fmt.Sprintf("goautossh: connection lost (%s); reconnecting in %s (attempt %d)",
		r.Outcome, r.Delay, r.Attempt+1)
}
