package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/fuzzylink/pkg/embedding"
	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/export"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
	"github.com/r3d91ll/fuzzylink/pkg/session"
	"github.com/r3d91ll/fuzzylink/pkg/spinner"
)

// Output formats for analyze.
const (
	formatJSON  = "json"
	formatCSV   = "csv"
	formatFiles = "files"
)

// analysisFlags override the analysis section of the config.
type analysisFlags struct {
	threshold float64
	copy      float64
	critical  int
	embed     bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.threshold, "threshold", -1, "Minimum link strength (overrides config)")
	cmd.Flags().Float64Var(&f.copy, "copy-threshold", -1, "Score at or above which a link counts as a copy (overrides config)")
	cmd.Flags().IntVar(&f.critical, "critical", -1, "Number of critical moves per direction (overrides config)")
	cmd.Flags().BoolVar(&f.embed, "embed", false, "Embed episodes without links using the configured provider")
}

// apply returns cfg with every flag that was set applied, validated.
func (f *analysisFlags) apply(cmd *cobra.Command, cfg linkograph.Config) (linkograph.Config, error) {
	if cmd.Flags().Changed("threshold") {
		cfg.MinLinkStrength = f.threshold
	}
	if cmd.Flags().Changed("copy-threshold") {
		cfg.CopyThreshold = f.copy
	}
	if cmd.Flags().Changed("critical") {
		cfg.CriticalMoveCount = f.critical
	}
	if err := cfg.Validate(); err != nil {
		if le, ok := lerrors.AsLinkographError(err); ok {
			le.WithSuggestion("Check --threshold, --copy-threshold and --critical")
		}
		return cfg, err
	}
	return cfg, nil
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		flags  analysisFlags
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "analyze <session.json>",
		Short: "Analyze every episode of a session",
		Long: `Analyze every episode of a session and write the results.

Formats:
  json   one report per episode (graph, summary, config, hash) as a JSON array
  csv    one summary row per episode
  files  report.json plus move, link and actor tables per episode in --out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.apply(cmd, a.cfg.Analysis.Config)
			if err != nil {
				return err
			}

			sess, err := session.Load(args[0])
			if err != nil {
				return err
			}
			if flags.embed {
				if err := a.embedSession(cmd.Context(), cmd.ErrOrStderr(), sess, cfg); err != nil {
					return canceled(err)
				}
			}

			graphs, err := a.analyzeSession(cmd.Context(), cmd.ErrOrStderr(), sess, cfg)
			if err != nil {
				return canceled(err)
			}
			return a.writeAnalysis(cmd.OutOrStdout(), graphs, cfg, format, out)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format: json, csv, files")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (json, csv) or directory (files); default stdout / export.dir")
	return cmd
}

// embedSession computes links for every episode that has none.
func (a *app) embedSession(ctx context.Context, w io.Writer, sess *session.Session, cfg linkograph.Config) error {
	provider, err := embedding.NewFromConfig(a.cfg.Embedding, a.logger)
	if err != nil {
		return err
	}

	total := pendingMoves(sess, false)
	if total == 0 {
		a.logger.Debug("every episode already has links or embeddings")
		return nil
	}

	bar := spinner.NewProgressWithConfig(spinner.ProgressConfig{
		Total:   total,
		Message: fmt.Sprintf("Embedding with %s", provider.Name()),
		Writer:  w,
	})
	bar.Start()

	opts := a.embeddingOptions()
	opts.KeepExisting = true
	opts.Progress = episodeProgress(bar, total)

	n, err := sess.AttachLinks(ctx, provider, cfg, session.AttachOptions{
		Embedding: opts,
		Logger:    a.logger,
	})
	if err != nil {
		bar.Fail("Embedding failed")
		return err
	}
	bar.Complete(fmt.Sprintf("Embedded %d episodes", n))
	return nil
}

// pendingMoves counts the moves AttachLinks will send to the provider.
// Without overwrite, episodes that have links are skipped and moves that
// already carry an embedding are kept.
func pendingMoves(sess *session.Session, overwrite bool) int {
	total := 0
	for _, ep := range sess.Episodes {
		if overwrite {
			total += len(ep.Moves)
			continue
		}
		if ep.Links != nil {
			continue
		}
		for _, m := range ep.Moves {
			if len(m.Embedding) == 0 {
				total++
			}
		}
	}
	return total
}

// episodeProgress turns per-episode progress into progress across the whole
// session. Episodes are embedded one after another.
func episodeProgress(bar *spinner.ProgressBar, total int) func(done, episodeTotal int) {
	base := 0
	return func(done, episodeTotal int) {
		bar.Report(base+done, total)
		if done >= episodeTotal {
			base += episodeTotal
		}
	}
}

func (a *app) embeddingOptions() embedding.Options {
	return embedding.Options{
		BatchSize:   a.cfg.Embedding.BatchSize,
		Concurrency: a.cfg.Embedding.Concurrency,
		Normalize:   a.cfg.Embedding.Normalize,
	}
}

func (a *app) analyzeSession(ctx context.Context, w io.Writer, sess *session.Session, cfg linkograph.Config) ([]*linkograph.Graph, error) {
	s := spinner.NewWithConfig(spinner.Config{
		Message: fmt.Sprintf("Analyzing %d episodes", len(sess.Episodes)),
		Writer:  w,
	})
	s.Start()

	graphs, err := sess.Analyze(ctx, cfg, a.cfg.Analysis.Workers)
	if err != nil {
		s.Fail("Analysis failed")
		return nil, err
	}
	s.Success(fmt.Sprintf("Analyzed %d episodes", len(graphs)))

	for _, g := range graphs {
		for _, warning := range g.Warnings {
			a.logger.Warn(warning, "episode", g.Name)
		}
	}
	return graphs, nil
}

func (a *app) writeAnalysis(stdout io.Writer, graphs []*linkograph.Graph, cfg linkograph.Config, format, out string) error {
	switch format {
	case formatJSON:
		reports := make([]*export.Report, len(graphs))
		for i, g := range graphs {
			reports[i] = export.NewReport(g, cfg, version)
		}
		return withOutput(stdout, out, func(w io.Writer) error {
			return export.WriteJSON(w, reports)
		})

	case formatCSV:
		return withOutput(stdout, out, func(w io.Writer) error {
			cw := export.NewCSVWriter(w, a.csvConfig())
			if err := cw.WriteGraphs(graphs); err != nil {
				return err
			}
			return cw.Flush()
		})

	case formatFiles:
		dir := out
		if dir == "" {
			dir = a.cfg.Export.Dir
		}
		for _, g := range graphs {
			files, err := export.WriteFiles(dir, g, cfg, a.csvConfig(), version)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s:\n", g.Name)
			for _, p := range files.Paths() {
				fmt.Fprintf(stdout, "  %s\n", p)
			}
		}
		return nil

	default:
		return lerrors.CommandErrorf(lerrors.ErrCommandInvalidArg, "unknown format %q", format).
			WithSuggestion("Use --format json, csv or files")
	}
}

// withOutput runs write against path, or stdout when path is empty.
func withOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return lerrors.WrapIO(err, lerrors.ErrExportFailed, "failed to create output file").
			WithContext("path", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return lerrors.WrapIO(err, lerrors.ErrExportFailed, "failed to write output file").
			WithContext("path", path)
	}
	return nil
}
