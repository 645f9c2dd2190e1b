package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/fuzzylink/pkg/embedding"
	"github.com/r3d91ll/fuzzylink/pkg/session"
	"github.com/r3d91ll/fuzzylink/pkg/spinner"
)

func newLinksCmd(a *app) *cobra.Command {
	var (
		out            string
		overwrite      bool
		keepEmbeddings bool
	)

	cmd := &cobra.Command{
		Use:   "links <session.json>",
		Short: "Compute and store link matrices for a session",
		Long: `Embed every move of a session with the configured provider and store the
resulting link matrix on each episode. Later runs of analyze and shell then
need no embedding provider.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := session.Load(args[0])
			if err != nil {
				return err
			}
			provider, err := embedding.NewFromConfig(a.cfg.Embedding, a.logger)
			if err != nil {
				return err
			}

			total := pendingMoves(sess, overwrite)

			bar := spinner.NewProgressWithConfig(spinner.ProgressConfig{
				Total:   total,
				Message: fmt.Sprintf("Embedding with %s", provider.Name()),
				Writer:  cmd.ErrOrStderr(),
			})
			bar.Start()

			opts := a.embeddingOptions()
			opts.KeepExisting = !overwrite
			opts.Progress = episodeProgress(bar, total)

			n, err := sess.AttachLinks(cmd.Context(), provider, a.cfg.Analysis.Config, session.AttachOptions{
				Embedding:      opts,
				Overwrite:      overwrite,
				KeepEmbeddings: keepEmbeddings,
				Logger:         a.logger,
			})
			if err != nil {
				bar.Fail("Embedding failed")
				return canceled(err)
			}
			bar.Complete(fmt.Sprintf("Computed links for %d episodes", n))

			if out == "" {
				out = args[0]
			}
			if err := sess.Save(out, keepEmbeddings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session written to: %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output session file (default: overwrite the input)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Recompute links for episodes that already have them")
	cmd.Flags().BoolVar(&keepEmbeddings, "keep-embeddings", false, "Store move embeddings in the session file")
	return cmd
}
