// fuzzylink - Fuzzy linkography for design conversations
//
// fuzzylink computes fuzzy linkographs over sessions of moves: link scores
// from move embeddings, link weights, entropy, critical moves and actor
// densities.
//
// Commands:
//   - analyze:   analyze every episode of a session and export the results
//   - links:     embed a session and store its link matrices
//   - shell:     explore an analyzed session interactively
//   - serve:     run the HTTP/WebSocket analysis API
//   - providers: check embedding provider availability
//   - init:      write a default config file
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/fuzzylink/pkg/config"
	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/export"
)

const version = "0.3.0"

// app carries what every command needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		lerrors.Display(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "fuzzylink",
		Short: "fuzzylink - fuzzy linkography analytics",
		Long: `fuzzylink builds fuzzy linkographs from sessions of moves.

A session is a JSON object of episodes; each episode is a list of moves with
text, an optional actor and timestamp, and optionally pre-computed links.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file path (default: ./fuzzylink.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	root.AddCommand(
		newAnalyzeCmd(a),
		newLinksCmd(a),
		newShellCmd(a),
		newServeCmd(a),
		newProvidersCmd(a),
		newInitCmd(a),
		newVersionCmd(),
	)
	return root
}

// load reads the config and sets up logging. Logs go to w, never stdout, so
// that JSON written to stdout stays parseable.
func (a *app) load(w io.Writer) error {
	if a.configPath == "" {
		a.configPath = config.DefaultConfigPath()
	}
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = newLogger(w, cfg.Log)
	slog.SetDefault(a.logger)
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// csvConfig maps the export section onto the CSV writer settings.
func (a *app) csvConfig() *export.CSVConfig {
	c := export.DefaultCSVConfig()
	if a.cfg.Export.Dialect != "" {
		c.Dialect = export.CSVDialect(a.cfg.Export.Dialect)
	}
	c.Precision = a.cfg.Export.Precision
	return c
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fuzzylink %s\n", version)
		},
	}
}

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.configPath == "" {
				a.configPath = config.DefaultConfigPath()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if force {
				if err := config.Default().Save(a.configPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Config written to: %s\n", a.configPath)
				return nil
			}

			created, err := config.InitConfig(a.configPath)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(out, "Config already exists at: %s\n", a.configPath)
				fmt.Fprintln(out, "Use --force to overwrite it.")
				return nil
			}
			fmt.Fprintf(out, "Config initialized at: %s\n", a.configPath)
			fmt.Fprintln(out, "Edit this file to configure the embedding provider and thresholds.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

// canceled turns context cancellation into a typed error so interrupted runs
// display like any other failure.
func canceled(err error) error {
	if _, ok := lerrors.AsLinkographError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return lerrors.Wrap(err, lerrors.ErrAnalysisCanceled, lerrors.CategoryInternal, "interrupted")
	}
	return err
}
