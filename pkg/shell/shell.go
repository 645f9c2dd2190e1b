// Package shell provides the interactive REPL for exploring an analyzed
// session.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/chzyer/readline"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/export"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
	"github.com/r3d91ll/fuzzylink/pkg/session"
)

// Config holds shell configuration.
type Config struct {
	HistoryFile string

	Analysis linkograph.Config

	// ExportDir is where /export writes when no directory is given.
	ExportDir string
	CSV       *export.CSVConfig

	ToolVersion string

	// Out receives command output. Defaults to os.Stdout.
	Out    io.Writer
	Logger *slog.Logger
}

// Shell is the interactive command-line interface over one session.
type Shell struct {
	session *session.Session
	config  Config
	out     io.Writer
	errs    *lerrors.Formatter
	logger  *slog.Logger

	// current is the selected episode ID.
	current string

	// analyzed caches results per episode under the current config.
	analyzed map[string]*linkograph.Graph
}

var errQuit = errors.New("quit")

// New creates a shell over s. The first episode is selected.
func New(s *session.Session, cfg Config) (*Shell, error) {
	if s == nil {
		return nil, lerrors.InputError(lerrors.ErrGraphNil, "no session loaded")
	}
	if err := cfg.Analysis.Validate(); err != nil {
		return nil, err
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sh := &Shell{
		session:  s,
		config:   cfg,
		out:      cfg.Out,
		logger:   cfg.Logger,
		analyzed: make(map[string]*linkograph.Graph),
		errs:     &lerrors.Formatter{Writer: cfg.Out, Indent: "  "},
	}
	if f, ok := cfg.Out.(*os.File); ok {
		sh.errs.UseColor = lerrors.IsTTY(f)
	}
	if len(s.Episodes) > 0 {
		sh.current = s.Episodes[0].ID
	}
	return sh, nil
}

// Run starts the interactive loop. It returns nil on /quit or EOF.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.config.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    NewCompleter(s),
	})
	if err != nil {
		return lerrors.WrapInternal(err, lerrors.ErrInternal, "failed to start line editor")
	}
	defer rl.Close()

	fmt.Fprintf(s.out, "Loaded %d episodes. Type /help for commands.\n\n", len(s.session.Episodes))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := s.Execute(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			s.errs.Display(err)
		}
		rl.SetPrompt(s.prompt())
	}
}

func (s *Shell) prompt() string {
	if s.current == "" {
		return "\033[32mfuzzylink>\033[0m "
	}
	return fmt.Sprintf("\033[32mfuzzylink[%s]>\033[0m ", s.current)
}

// Execute runs one command line. Blank lines are ignored.
func (s *Shell) Execute(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	if !strings.HasPrefix(parts[0], "/") {
		return lerrors.CommandErrorf(lerrors.ErrCommandNotFound, "not a command: %s", parts[0]).
			WithSuggestion("Commands start with '/'; try /help")
	}

	cmd, args := parts[0], parts[1:]
	s.logger.Debug("shell command", "command", cmd, "args", args)

	switch cmd {
	case "/quit", "/exit", "/q":
		return errQuit
	case "/help", "/h":
		return s.handleHelp(args)
	case "/episodes":
		s.printEpisodes()
		return nil
	case "/use":
		return s.handleUse(args)
	case "/moves":
		return s.handleMoves()
	case "/links":
		return s.handleLinks(args)
	case "/critical":
		return s.handleCritical()
	case "/entropy":
		return s.handleEntropy()
	case "/actors":
		return s.handleActors()
	case "/summary":
		return s.handleSummary()
	case "/threshold":
		return s.handleThreshold(args)
	case "/export":
		return s.handleExport(args)
	}

	return lerrors.CommandErrorf(lerrors.ErrCommandNotFound, "unknown command: %s", cmd).
		WithSuggestion("Type /help to list commands")
}

func (s *Shell) episode() *session.Episode {
	ep, err := s.session.Episode(s.current)
	if err != nil {
		return nil
	}
	return ep
}

// graph returns the analyzed current episode, analyzing it on first use.
func (s *Shell) graph() (*linkograph.Graph, error) {
	if s.current == "" {
		return nil, lerrors.CommandError(lerrors.ErrEpisodeNotFound, "no episode selected").
			WithSuggestion("Select one with /use <id>")
	}
	if g, ok := s.analyzed[s.current]; ok {
		return g, nil
	}

	ep, err := s.session.Episode(s.current)
	if err != nil {
		return nil, err
	}
	g, err := linkograph.Analyze(ep.Graph(), s.config.Analysis)
	if err != nil {
		if le, ok := lerrors.AsLinkographError(err); ok {
			le.WithContext("episode", ep.ID)
		}
		return nil, err
	}
	for _, w := range g.Warnings {
		s.logger.Warn("degenerate input", "episode", ep.ID, "warning", w)
	}
	s.analyzed[s.current] = g
	return g, nil
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
