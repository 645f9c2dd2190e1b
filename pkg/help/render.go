package help

import (
	"strings"
)

const (
	// commandColumnWidth fits the longest usage plus aliases.
	commandColumnWidth = 22
	separatorWidth     = commandColumnWidth + 20

	indentCategory = "  "
	indentCommand  = "    "
	indentExample  = "      "
)

// RenderFull renders every category followed by the key reference.
func (r *Renderer) RenderFull() {
	r.writeln("")
	r.writeln(r.header(indentCategory + "fuzzylink commands"))
	r.writeln("")

	for _, cat := range CategoryOrder {
		r.renderCategory(cat)
	}
	r.RenderShortcuts()
}

// RenderCommand renders the detail screen of one command. It reports false,
// writing nothing, when name is not a command.
func (r *Renderer) RenderCommand(name string) bool {
	cmd, found := Lookup(name)
	if !found {
		return false
	}

	r.writeln("")
	r.writeln(indentCategory + r.withAliases(cmd.Name, cmd.Aliases))
	r.writeln(indentCategory + r.dim(cmd.Description))
	r.writeln("")
	r.writeln(indentCategory + r.bold("Usage:") + " " + r.example(cmd.Usage))
	r.writeln("")

	if len(cmd.Examples) > 0 {
		r.writeln(indentCategory + r.bold("Examples:"))
		for _, ex := range cmd.Examples {
			r.writeln(indentCommand + r.example(ex.Command) + r.dim(" -> "+ex.Description))
		}
		r.writeln("")
	}
	return true
}

// RenderShortcuts renders the aliases and key bindings.
func (r *Renderer) RenderShortcuts() {
	r.writeln(indentCategory + r.category("Shortcuts"))
	r.writeln(indentCategory + r.dim(BoxTeeLeft+strings.Repeat(BoxHorizontal, separatorWidth)))
	r.writeln(indentCommand + r.dim(BoxVertical+" ") + r.dim("Aliases: ") +
		r.shortcut("/h") + r.dim(" help  ") +
		r.shortcut("/q") + r.dim(" quit  ") +
		r.shortcut("/exit") + r.dim(" quit"))
	r.writeln(indentCommand + r.dim(BoxVertical+" ") + r.dim("Keys:    ") +
		r.shortcut("Tab") + r.dim(" complete  ") +
		r.shortcut("Ctrl+D") + r.dim(" exit  ") +
		r.shortcut("↑↓") + r.dim(" history"))
	r.writeln("")
}

func (r *Renderer) renderCategory(cat Category) {
	commands := ByCategory(cat)
	if len(commands) == 0 {
		return
	}

	r.writeln(indentCategory + r.category(cat.Icon()+" "+cat.DisplayName()))
	r.writeln(indentCategory + r.dim(BoxTeeLeft+strings.Repeat(BoxHorizontal, separatorWidth)))

	for _, cmd := range commands {
		usage := r.example(cmd.Usage)
		r.writeln(indentCommand + r.dim(BoxVertical+" ") + padRight(usage, commandColumnWidth) + r.dim(cmd.Description))

		// At most two examples inline; /help <command> lists them all.
		for i, ex := range cmd.Examples {
			if i == 2 {
				break
			}
			r.writeln(indentExample + r.dim(BoxVertical+"   e.g. ") + r.example(ex.Command))
		}
	}
	r.writeln("")
}
