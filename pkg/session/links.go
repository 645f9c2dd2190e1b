package session

import (
	"context"
	"log/slog"

	"github.com/r3d91ll/fuzzylink/pkg/embedding"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

// AttachOptions controls AttachLinks.
type AttachOptions struct {
	Embedding embedding.Options

	// Overwrite recomputes links for episodes that already have them.
	Overwrite bool

	// KeepEmbeddings leaves the computed embeddings on the moves.
	KeepEmbeddings bool

	Logger *slog.Logger
}

// AttachLinks embeds the moves of every episode and stores the resulting
// link matrix on it, so later analysis can skip the embedding provider.
// It returns the number of episodes updated.
func (s *Session) AttachLinks(ctx context.Context, p embedding.Provider, cfg linkograph.Config, opts AttachOptions) (int, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	updated := 0
	for _, ep := range s.Episodes {
		if ep.Links != nil && !opts.Overwrite {
			logger.Debug("episode already has links", "episode", ep.ID)
			continue
		}
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		moves, err := embedding.EmbedMoves(ctx, p, ep.Moves, opts.Embedding)
		if err != nil {
			return updated, withEpisode(err, ep.ID)
		}
		links, err := linkograph.BuildLinks(moves, cfg)
		if err != nil {
			return updated, withEpisode(err, ep.ID)
		}

		ep.Links = links
		if opts.KeepEmbeddings {
			ep.Moves = moves
		}
		updated++
		logger.Info("computed links", "episode", ep.ID, "moves", len(moves))
	}
	return updated, nil
}
