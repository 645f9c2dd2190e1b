package errors

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[90m"
	colorBold   = "\033[1m"
)

// Formatter renders errors for the CLI and the interactive shell.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool

	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer

	// Indent is the prefix for context and suggestion lines.
	Indent string
}

// DefaultFormatter returns a Formatter writing to stderr, colored when stderr is a TTY.
func DefaultFormatter() *Formatter {
	return &Formatter{
		UseColor: IsTTY(os.Stderr),
		Writer:   os.Stderr,
		Indent:   "  ",
	}
}

// IsTTY returns true if the given file is a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Format renders err. LinkographErrors show code, message, context, cause
// and suggestions; other errors get a plain "Error:" prefix.
func (f *Formatter) Format(err error) string {
	if err == nil {
		return ""
	}

	le, ok := AsLinkographError(err)
	if !ok {
		return f.paint(colorRed, "Error: ") + err.Error()
	}

	var sb strings.Builder
	sb.WriteString(f.paint(colorRed+colorBold, "ERROR"))
	sb.WriteString(f.paint(colorRed, " ["+le.Code+"]: "))
	sb.WriteString(le.Message)
	sb.WriteString("\n")

	keys := make([]string, 0, len(le.Context))
	for k := range le.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(f.Indent)
		sb.WriteString(f.paint(colorYellow, k+": "))
		sb.WriteString(le.Context[k])
		sb.WriteString("\n")
	}

	if le.Cause != nil {
		sb.WriteString(f.Indent)
		sb.WriteString(f.paint(colorDim, "cause: "+le.Cause.Error()))
		sb.WriteString("\n")
	}

	if le.HasSuggestions() {
		if le.HasContext() || le.Cause != nil {
			sb.WriteString("\n")
		}
		for i, s := range le.Suggestions {
			sb.WriteString(f.Indent)
			sb.WriteString(f.paint(colorCyan, "→ "+s))
			if i < len(le.Suggestions)-1 {
				sb.WriteString("\n")
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (f *Formatter) paint(color, s string) string {
	if !f.UseColor {
		return s
	}
	return color + s + colorReset
}

// Display writes a formatted error to the formatter's writer.
func (f *Formatter) Display(err error) {
	if err == nil {
		return
	}
	w := f.Writer
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintln(w, f.Format(err))
}

// Display writes a formatted error to stderr with default settings.
func Display(err error) {
	DefaultFormatter().Display(err)
}

// Sprint returns a formatted error string without colors.
func Sprint(err error) string {
	f := &Formatter{Writer: io.Discard, Indent: "  "}
	return f.Format(err)
}

// CategoryLabel returns a human-readable label for an error category.
func CategoryLabel(cat Category) string {
	switch cat {
	case CategoryConfig:
		return "Configuration Error"
	case CategoryInput:
		return "Input Error"
	case CategoryNumeric:
		return "Numeric Error"
	case CategoryEmbedding:
		return "Embedding Error"
	case CategorySession:
		return "Session Error"
	case CategoryCommand:
		return "Command Error"
	case CategoryIO:
		return "I/O Error"
	case CategoryInternal:
		return "Internal Error"
	default:
		return "Error"
	}
}
