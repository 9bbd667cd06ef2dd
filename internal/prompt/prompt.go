package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"project-sweeper/internal/sweep"
)

const enterMessage = "\nPress [Enter] to close this window..."

// WaitForEnter returns a hook that prints a prompt and blocks until one line
// (or EOF) is read from in
func WaitForEnter(in io.Reader, out io.Writer) sweep.OnComplete {
	return func(*sweep.Result) {
		fmt.Fprint(out, enterMessage)
		// EOF and read errors both mean nobody is there to acknowledge
		_, _ = bufio.NewReader(in).ReadString('\n')
		fmt.Fprintln(out)
	}
}

// None is a hook that returns immediately
func None() sweep.OnComplete {
	return func(*sweep.Result) {}
}

// IsInteractive reports whether f is attached to a terminal
func IsInteractive(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ForConsole waits for Enter only when stdin is a terminal and waiting was not disabled
func ForConsole(stdin *os.File, out io.Writer, noWait bool) sweep.OnComplete {
	if noWait || !IsInteractive(stdin) {
		return None()
	}
	return WaitForEnter(stdin, out)
}
