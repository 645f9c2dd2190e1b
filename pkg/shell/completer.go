package shell

import (
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/r3d91ll/fuzzylink/pkg/help"
)

// commands are the completable command names, without the slash.
var commands = help.Names()

// Completer completes command names, episode IDs after /use and move
// indexes after /links.
type Completer struct {
	shell *Shell
}

var _ readline.AutoCompleter = (*Completer)(nil)

// NewCompleter creates a completer over the shell's session.
func NewCompleter(s *Shell) *Completer {
	return &Completer{shell: s}
}

// Do implements readline.AutoCompleter. It returns candidate suffixes and
// the length of the word being completed.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	if len(line) == 0 || pos <= 0 {
		return nil, 0
	}
	pos = min(pos, len(line))
	text := string(line[:pos])

	wordStart := strings.LastIndexAny(text, " \t") + 1
	word := text[wordStart:]

	if wordStart == 0 {
		if !strings.HasPrefix(word, "/") {
			return nil, 0
		}
		return complete(commands, strings.TrimPrefix(word, "/"), len(word))
	}

	fields := strings.Fields(text[:wordStart])
	if len(fields) != 1 {
		return nil, 0
	}
	switch fields[0] {
	case "/use":
		return complete(c.shell.session.EpisodeIDs(), word, len(word))
	case "/links":
		return complete(c.moveIndexes(), word, len(word))
	}
	return nil, 0
}

func (c *Completer) moveIndexes() []string {
	ep := c.shell.episode()
	if ep == nil {
		return nil
	}
	idx := make([]string, len(ep.Moves))
	for i := range idx {
		idx[i] = strconv.Itoa(i)
	}
	return idx
}

func complete(candidates []string, prefix string, length int) ([][]rune, int) {
	var matches [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(cand, prefix) {
			matches = append(matches, []rune(cand[len(prefix):]+" "))
		}
	}
	return matches, length
}
