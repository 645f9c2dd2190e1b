// Package help renders the help screens of the interactive shell.
//
// Commands are grouped by category and drawn with box characters:
//
//	  📂 Episodes
//	  ├──────────────────────────────────────────
//	    │ /episodes             List episodes in the session
//	    │ /use <id>             Select an episode
//	      │   e.g. /use 2
//
// Colors are ANSI escape codes and are only emitted when the renderer is
// created with color enabled.
package help

import (
	"fmt"
	"io"
)

// Box drawing characters.
const (
	BoxHorizontal = "─"
	BoxVertical   = "│"
	BoxTeeLeft    = "├"
)

// ANSI color codes for styled output.
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorGray   = "\033[90m"
)

// Renderer formats and writes help output.
type Renderer struct {
	w     io.Writer
	color bool
}

// NewRenderer creates a renderer writing to w. With color false the output
// is plain text.
func NewRenderer(w io.Writer, color bool) *Renderer {
	return &Renderer{w: w, color: color}
}

func (r *Renderer) writeln(s string) {
	fmt.Fprintln(r.w, s)
}
