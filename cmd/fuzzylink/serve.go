package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/fuzzylink/pkg/api"
	"github.com/r3d91ll/fuzzylink/pkg/embedding"
	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis API",
		Long: `Run the HTTP analysis API.

Endpoints:
  GET  /health             provider status
  POST /api/analyze        analyze moves that carry embeddings or links
  POST /api/embed-analyze  embed moves with the configured provider, then analyze
  GET  /ws                 analysis events`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverCfg := a.cfg.Server
			if addr != "" {
				serverCfg.Addr = addr
			}

			// The API still serves /api/analyze without a provider.
			provider, err := embedding.NewFromConfig(a.cfg.Embedding, a.logger)
			if err != nil {
				if !lerrors.IsCode(err, lerrors.ErrProviderNotConfigured) {
					return err
				}
				a.logger.Warn("embedding disabled", "reason", err.Error())
			}

			srv := api.NewServer(serverCfg, api.Options{
				Analysis:  a.cfg.Analysis.Config,
				Provider:  provider,
				Embedding: a.embeddingOptions(),
				Version:   version,
				Logger:    a.logger,
			})

			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", serverCfg.Addr)
			return srv.ListenAndServe(cmd.Context(), func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), shutdownTimeout)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
