package linkograph

import (
	"math"

	"github.com/r3d91ll/fuzzylink/pkg/vecmath"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

// BuildLinks computes the cosine similarity of every move against every
// earlier move. All embeddings must be present and share one dimension.
//
// A zero-magnitude embedding has similarity 0 with everything unless
// cfg.StrictZeroVectors is set, in which case it is an error.
func BuildLinks(moves []Move, cfg Config) (*LinkMatrix, error) {
	links, _, err := buildLinks(moves, cfg)
	return links, err
}

// buildLinks is BuildLinks that also returns the indexes of the
// zero-magnitude embeddings.
func buildLinks(moves []Move, cfg Config) (*LinkMatrix, []int, error) {
	zero, err := checkEmbeddings(moves, cfg)
	if err != nil {
		return nil, nil, err
	}
	isZero := make([]bool, len(moves))
	for _, i := range zero {
		isZero[i] = true
	}

	links := NewLinkMatrix(len(moves))
	for i := 1; i < len(moves); i++ {
		if isZero[i] {
			continue
		}
		for j := 0; j < i; j++ {
			if isZero[j] {
				continue
			}
			score, err := vecmath.CosineSimilarity(moves[i].Embedding, moves[j].Embedding)
			if err != nil {
				return nil, nil, lerrors.Wrap(err, lerrors.ErrScoreOutOfRange, lerrors.CategoryNumeric,
					"similarity could not be computed").
					WithContextf("i", i).
					WithContextf("j", j)
			}
			links.scores[links.index(i, j)] = score
		}
	}
	return links, zero, nil
}

// checkEmbeddings validates every embedding and returns the indexes of the
// zero-magnitude ones.
func checkEmbeddings(moves []Move, cfg Config) ([]int, error) {
	dim := cfg.Dimension
	var zero []int
	for i, m := range moves {
		if len(m.Embedding) == 0 {
			return nil, lerrors.InputErrorf(lerrors.ErrEmbeddingMissing,
				"move %d has no embedding", i).
				WithContextf("move", i).
				WithSuggestion("Embed every move first, or supply a pre-computed link matrix")
		}
		if dim == 0 {
			dim = len(m.Embedding)
		}
		if len(m.Embedding) != dim {
			return nil, lerrors.InputErrorf(lerrors.ErrEmbeddingDimensionMismatch,
				"move %d has dimension %d, expected %d", i, len(m.Embedding), dim).
				WithContextf("move", i).
				WithContextf("dimension", len(m.Embedding)).
				WithContextf("expected", dim).
				WithSuggestion("Check that every move was embedded with the same model")
		}
		for _, v := range m.Embedding {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, lerrors.InputErrorf(lerrors.ErrMoveInvalid,
					"move %d embedding has a non-finite component", i).
					WithContextf("move", i)
			}
		}
		if vecmath.Magnitude(m.Embedding) == 0 {
			if cfg.StrictZeroVectors {
				return nil, lerrors.NumericErrorf(lerrors.ErrEmbeddingZeroMagnitude,
					"move %d has a zero-magnitude embedding", i).
					WithContextf("move", i)
			}
			zero = append(zero, i)
		}
	}
	return zero, nil
}
