package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/fuzzylink/pkg/session"
	"github.com/r3d91ll/fuzzylink/pkg/shell"
)

func newShellCmd(a *app) *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "shell <session.json>",
		Short: "Explore a session interactively",
		Args:  cobra.ExactArgs(1),
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

			homeDir, _ := os.UserHomeDir()
			sh, err := shell.New(sess, shell.Config{
				HistoryFile: filepath.Join(homeDir, ".fuzzylink_history"),
				Analysis:    cfg,
				ExportDir:   a.cfg.Export.Dir,
				CSV:         a.csvConfig(),
				ToolVersion: version,
				Out:         cmd.OutOrStdout(),
				Logger:      a.logger,
			})
			if err != nil {
				return err
			}
			return sh.Run(cmd.Context())
		},
	}
	flags.register(cmd)
	return cmd
}
