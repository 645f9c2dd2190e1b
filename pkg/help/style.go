package help

import "strings"

func (r *Renderer) paint(codes, text string) string {
	if !r.color || text == "" {
		return text
	}
	return codes + text + ColorReset
}

// header is bold cyan, used for the screen title.
func (r *Renderer) header(text string) string { return r.paint(ColorBold+ColorCyan, text) }

// category is bold green.
func (r *Renderer) category(text string) string { return r.paint(ColorBold+ColorGreen, text) }

func (r *Renderer) command(text string) string  { return r.paint(ColorCyan, text) }
func (r *Renderer) argument(text string) string { return r.paint(ColorYellow, text) }
func (r *Renderer) shortcut(text string) string { return r.paint(ColorBold+ColorYellow, text) }
func (r *Renderer) dim(text string) string      { return r.paint(ColorGray, text) }
func (r *Renderer) bold(text string) string     { return r.paint(ColorBold, text) }

// withAliases formats "/quit (or /q, /exit)".
func (r *Renderer) withAliases(name string, aliases []string) string {
	if len(aliases) == 0 {
		return r.command(name)
	}
	styled := make([]string, len(aliases))
	for i, a := range aliases {
		styled[i] = r.shortcut(a)
	}
	return r.command(name) + r.dim(" (or ") + strings.Join(styled, r.dim(", ")) + r.dim(")")
}

// example highlights the command word in cyan and its arguments in yellow.
func (r *Renderer) example(line string) string {
	name, args, _ := strings.Cut(line, " ")
	out := r.command(name)
	if args = strings.TrimLeft(args, " "); args != "" {
		out += r.argument(" " + args)
	}
	return out
}

// visibleLength returns the length of s in runes, excluding ANSI escape codes.
func visibleLength(s string) int {
	length := 0
	inEscape := false
	for _, c := range s {
		if c == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
			continue
		}
		length++
	}
	return length
}

// padRight pads s with spaces to the given visible width.
func padRight(s string, width int) string {
	if n := visibleLength(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s + " "
}
