// Package process launches the ssh client as a foreground child.
//
// The child inherits the supervisor's stdin, stdout and stderr so password
// prompts and TTY allocation behave as if ssh had been run directly. It
// stays in the supervisor's process group: it can read from the
// controlling terminal, and signals the terminal sends reach both.
//
// When stdin is a terminal its state is captured before each launch and
// restored after the child exits, so a child killed mid-session cannot
// leave the terminal in raw mode.
package process
