//go:build linux

package process

import (
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/vburojevic/goautossh/internal/domain"
)

// openPTY returns the slave side of a fresh pseudo-terminal.
func openPTY(t *testing.T) *os.File {
	t.Helper()
	ptmx, err := os.OpenFile("/dev/ptmx", os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		t.Skipf("pseudo-terminals unavailable: %v", err)
	}
	t.Cleanup(func() { ptmx.Close() })

	fd := int(ptmx.Fd())
	require.NoError(t, unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0))
	n, err := unix.IoctlGetUint32(fd, unix.TIOCGPTN)
	require.NoError(t, err)

	tty, err := os.OpenFile(fmt.Sprintf("/dev/pts/%d", n), os.O_RDWR|unix.O_NOCTTY, 0)
	require.NoError(t, err)
	t.Cleanup(func() { tty.Close() })
	return tty
}

func termios(t *testing.T, f *os.File) *unix.Termios {
	t.Helper()
	tio, err := unix.IoctlGetTermios(int(f.Fd()), unix.TCGETS)
	require.NoError(t, err)
	return tio
}

func assertSameModes(t *testing.T, want, got *unix.Termios) {
	t.Helper()
	assert.Equal(t, want.Iflag, got.Iflag, "iflag")
	assert.Equal(t, want.Oflag, got.Oflag, "oflag")
	assert.Equal(t, want.Cflag, got.Cflag, "cflag")
	assert.Equal(t, want.Lflag, got.Lflag, "lflag")
}

func TestTerminalGuardRestoresTTY(t *testing.T) {
	tty := openPTY(t)
	g := NewTerminalGuard(tty)
	require.True(t, g.IsTerminal())

	cooked := termios(t, tty)
	require.NotZero(t, cooked.Lflag&unix.ICANON)

	g.Save()
	_, err := term.MakeRaw(int(tty.Fd()))
	require.NoError(t, err)
	require.Zero(t, termios(t, tty).Lflag&unix.ICANON)

	require.NoError(t, g.Restore())
	assertSameModes(t, cooked, termios(t, tty))
}

func TestLaunchRestoresTerminalAfterChild(t *testing.T) {
	if _, err := exec.LookPath("stty"); err != nil {
		t.Skip("stty not installed")
	}
	tty := openPTY(t)
	cooked := termios(t, tty)

	stub := writeStub(t, t.TempDir(), "ssh", "#!/bin/sh\nstty raw -echo\nexit 255\n")
	l, out := testLauncher(stub)
	l.Stdin = tty
	l.Terminal = NewTerminalGuard(tty)

	h, err := l.Launch(nil)
	require.NoError(t, err)
	require.Equal(t, domain.Exited(255), waitOutcome(t, h), out.String())

	assertSameModes(t, cooked, termios(t, tty))
}

func TestLaunchWithoutGuardLeavesTerminalRaw(t *testing.T) {
	if _, err := exec.LookPath("stty"); err != nil {
		t.Skip("stty not installed")
	}
	tty := openPTY(t)

	stub := writeStub(t, t.TempDir(), "ssh", "#!/bin/sh\nstty raw -echo\n")
	l, _ := testLauncher(stub)
	l.Stdin = tty

	h, err := l.Launch(nil)
	require.NoError(t, err)
	require.Equal(t, domain.Exited(0), waitOutcome(t, h))

	assert.Zero(t, termios(t, tty).Lflag&unix.ICANON)
}
