package embedding

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
	"github.com/r3d91ll/fuzzylink/pkg/vecmath"
)

// Options controls EmbedMoves.
type Options struct {
	// BatchSize is the number of texts per provider call. Default 32.
	BatchSize int

	// Concurrency is the number of batches in flight. Default 1.
	Concurrency int

	// Normalize scales every vector to unit length.
	Normalize bool

	// Skip moves that already carry an embedding.
	KeepExisting bool

	// Progress is called after each batch with the number of moves done.
	// Calls are serialized.
	Progress func(done, total int)
}

// EmbedMoves returns a copy of moves with every embedding filled in. Either
// all moves end up embedded with one shared dimension, or an error is
// returned; partial results are never handed back.
func EmbedMoves(ctx context.Context, p Provider, moves []linkograph.Move, opts Options) ([]linkograph.Move, error) {
	if p == nil {
		return nil, lerrors.EmbeddingError(lerrors.ErrProviderNotConfigured, "no embedding provider")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	out := make([]linkograph.Move, len(moves))
	copy(out, moves)

	var todo []int
	for i := range out {
		if opts.KeepExisting && len(out[i].Embedding) > 0 {
			continue
		}
		todo = append(todo, i)
	}

	var (
		mu   sync.Mutex
		done int
	)
	total := len(todo)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Concurrency)
	for start := 0; start < len(todo); start += opts.BatchSize {
		batch := todo[start:min(start+opts.BatchSize, len(todo))]
		eg.Go(func() error {
			texts := make([]string, len(batch))
			for k, i := range batch {
				texts[k] = out[i].Text
			}

			vectors, err := p.EmbedBatch(ctx, texts)
			if err != nil {
				return err
			}
			if len(vectors) != len(batch) {
				return lerrors.EmbeddingErrorf(lerrors.ErrProviderBadResponse,
					"provider returned %d vectors for %d texts", len(vectors), len(batch))
			}

			for k, i := range batch {
				v := vectors[k]
				if dim := p.Dimension(); dim > 0 && len(v) != dim {
					return dimensionMismatch(i, len(v), dim)
				}
				if opts.Normalize {
					if v, err = vecmath.Normalize(v); err != nil {
						// Zero vectors stay as they are; analysis reports them.
						v = vectors[k]
					}
				}
				out[i].Embedding = v
			}

			mu.Lock()
			done += len(batch)
			if opts.Progress != nil {
				opts.Progress(done, total)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Batches may disagree when the provider dimension is not fixed up front.
	for i := range out {
		if len(out[i].Embedding) != len(out[0].Embedding) {
			return nil, dimensionMismatch(i, len(out[i].Embedding), len(out[0].Embedding))
		}
	}
	return out, nil
}

func dimensionMismatch(move, got, want int) error {
	return lerrors.InputErrorf(lerrors.ErrEmbeddingDimensionMismatch,
		"move %d embedding has dimension %d, expected %d", move, got, want).
		WithContextf("move", move).
		WithSuggestion("Check embedding.dimension matches the model output")
}
