package help

import (
	"sort"
	"strings"
)

// Category groups commands in the help screen.
type Category string

const (
	CategoryEpisodes   Category = "episodes"
	CategoryLinkograph Category = "linkograph"
	CategorySettings   Category = "settings"
	CategoryGeneral    Category = "general"
)

// CategoryOrder is the order categories appear in.
var CategoryOrder = []Category{
	CategoryEpisodes,
	CategoryLinkograph,
	CategorySettings,
	CategoryGeneral,
}

var categoryInfo = map[Category]struct{ name, icon string }{
	CategoryEpisodes:   {"Episodes", "📂"},
	CategoryLinkograph: {"Linkograph", "🔗"},
	CategorySettings:   {"Thresholds & Export", "⚙"},
	CategoryGeneral:    {"General", "ℹ"},
}

// DisplayName returns the heading shown for the category.
func (c Category) DisplayName() string {
	if info, ok := categoryInfo[c]; ok {
		return info.name
	}
	return string(c)
}

// Icon returns the icon shown before the heading.
func (c Category) Icon() string {
	return categoryInfo[c].icon
}

// Command is the help metadata of one shell command.
type Command struct {
	// Name includes the leading slash.
	Name string

	Aliases     []string
	Category    Category
	Description string

	// Usage is the full syntax, e.g. "/links <i>".
	Usage    string
	Examples []Example
}

// Example is one sample invocation.
type Example struct {
	Command     string
	Description string
}

// Commands is every shell command. The shell's dispatch and completion
// follow this list.
var Commands = []Command{
	{
		Name:        "/episodes",
		Category:    CategoryEpisodes,
		Description: "List episodes in the session",
		Usage:       "/episodes",
	},
	{
		Name:        "/use",
		Category:    CategoryEpisodes,
		Description: "Select an episode",
		Usage:       "/use <id>",
		Examples: []Example{
			{Command: "/use 2", Description: "Analyze episode 2 from now on"},
		},
	},
	{
		Name:        "/summary",
		Category:    CategoryEpisodes,
		Description: "Overview of the selected episode",
		Usage:       "/summary",
	},

	{
		Name:        "/moves",
		Category:    CategoryLinkograph,
		Description: "Per-move weights, entropy and critical flags",
		Usage:       "/moves",
	},
	{
		Name:        "/links",
		Category:    CategoryLinkograph,
		Description: "Backlinks and forelinks of move i",
		Usage:       "/links <i>",
		Examples: []Example{
			{Command: "/links 0", Description: "Every later move's score against move 0"},
			{Command: "/links 4", Description: "Scores of move 4 against earlier and later moves"},
		},
	},
	{
		Name:        "/critical",
		Category:    CategoryLinkograph,
		Description: "Critical moves, heaviest first",
		Usage:       "/critical",
	},
	{
		Name:        "/entropy",
		Category:    CategoryLinkograph,
		Description: "Backlink, forelink and horizon entropy",
		Usage:       "/entropy",
	},
	{
		Name:        "/actors",
		Category:    CategoryLinkograph,
		Description: "Link density per actor pair and copy count",
		Usage:       "/actors",
	},

	{
		Name:        "/threshold",
		Category:    CategorySettings,
		Description: "Show or set the minimum link strength",
		Usage:       "/threshold [x]",
		Examples: []Example{
			{Command: "/threshold", Description: "Show the current threshold"},
			{Command: "/threshold 0.5", Description: "Only count scores of 0.5 and above as links"},
		},
	},
	{
		Name:        "/export",
		Category:    CategorySettings,
		Description: "Write report.json and CSV tables",
		Usage:       "/export [dir]",
		Examples: []Example{
			{Command: "/export ./out", Description: "Write into ./out/<episode>/"},
		},
	},

	{
		Name:        "/help",
		Aliases:     []string{"/h"},
		Category:    CategoryGeneral,
		Description: "Show this help, or details for one command",
		Usage:       "/help [command]",
		Examples: []Example{
			{Command: "/help links", Description: "Show detailed /links help"},
		},
	},
	{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Category:    CategoryGeneral,
		Description: "Leave the shell",
		Usage:       "/quit",
	},
}

// ByCategory returns the commands of one category, in list order.
func ByCategory(cat Category) []Command {
	var result []Command
	for _, cmd := range Commands {
		if cmd.Category == cat {
			result = append(result, cmd)
		}
	}
	return result
}

// Lookup finds a command by name or alias, with or without the slash.
func Lookup(name string) (Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	for _, cmd := range Commands {
		if cmd.Name == name {
			return cmd, true
		}
		for _, a := range cmd.Aliases {
			if a == name {
				return cmd, true
			}
		}
	}
	return Command{}, false
}

// Names returns every command name and alias without the slash, sorted.
func Names() []string {
	var names []string
	for _, cmd := range Commands {
		names = append(names, strings.TrimPrefix(cmd.Name, "/"))
		for _, a := range cmd.Aliases {
			names = append(names, strings.TrimPrefix(a, "/"))
		}
	}
	sort.Strings(names)
	return names
}
