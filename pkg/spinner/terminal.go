// Package spinner draws terminal feedback for long-running steps: an
// animated spinner for work of unknown length and a progress bar for
// embedding batches. Output degrades to plain lines when not on a TTY.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

const (
	hideCursor     = "\033[?25l"
	showCursor     = "\033[?25h"
	carriageReturn = "\r"

	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"

	symbolSuccess = "✓"
	symbolFailure = "✗"
)

// IsTerminal reports whether w is an *os.File attached to a terminal.
func IsTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func resolveTTY(w io.Writer, override *bool) bool {
	if override != nil {
		return *override
	}
	return IsTerminal(w)
}

// line tracks what is currently drawn on the terminal line.
type line struct {
	w    io.Writer
	last int
}

func (l *line) draw(s string) {
	l.clear()
	fmt.Fprint(l.w, s)
	l.last = len(s)
}

func (l *line) clear() {
	if l.last > 0 {
		fmt.Fprint(l.w, carriageReturn+strings.Repeat(" ", l.last)+carriageReturn)
		l.last = 0
	}
}

// finish prints the final status line, colored on a terminal.
func finish(w io.Writer, tty bool, symbol, color, message string, elapsed time.Duration) {
	if tty {
		symbol = color + symbol + colorReset
	}
	if elapsed > 0 {
		fmt.Fprintf(w, "%s %s %s\n", symbol, message, formatElapsed(elapsed))
		return
	}
	fmt.Fprintf(w, "%s %s\n", symbol, message)
}

// formatElapsed shows short durations as "(1.2s)", longer ones as "(1m 30s)".
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("(%.1fs)", d.Seconds())
	}
	return fmt.Sprintf("(%dm %ds)", int(d.Minutes()), int(d.Seconds())%60)
}
