package linkograph

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

// Analyze runs the full pipeline on a copy of g and returns the annotated
// copy. Links are computed from the move embeddings unless g.Links is
// already set, in which case the supplied matrix is used as is.
//
// The same input and config always produce bit-identical results.
func Analyze(g *Graph, cfg Config) (*Graph, error) {
	if g == nil {
		return nil, lerrors.InputError(lerrors.ErrGraphNil, "no graph to analyze")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out := g.Clone()
	out.resetDerived()
	for i := range out.Moves {
		if err := out.Moves[i].Validate(); err != nil {
			if le, ok := lerrors.AsLinkographError(err); ok {
				le.WithContextf("move", i)
			}
			return nil, err
		}
	}

	links, warnings, err := resolveLinks(out, cfg)
	if err != nil {
		return nil, err
	}
	out.Links = links
	out.Warnings = warnings

	ws := ComputeWeights(links, cfg)
	for i := range out.Moves {
		out.Moves[i].BacklinkWeight = ws.Backlink[i]
		out.Moves[i].ForelinkWeight = ws.Forelink[i]
	}
	for _, i := range ws.BacklinkCritical {
		out.Moves[i].BacklinkCriticalMove = true
	}
	for _, i := range ws.ForelinkCritical {
		out.Moves[i].ForelinkCriticalMove = true
	}
	out.LinkDensityIndex = ws.LinkDensityIndex
	out.MaxBacklinkWeight = ws.MaxBacklinkWeight
	out.MaxForelinkWeight = ws.MaxForelinkWeight

	es := ComputeEntropy(links, ws, cfg)
	for i := range out.Moves {
		out.Moves[i].BacklinkEntropy = es.Backlink[i]
		out.Moves[i].ForelinkEntropy = es.Forelink[i]
	}
	out.BacklinkEntropy = es.BacklinkEntropy
	out.ForelinkEntropy = es.ForelinkEntropy
	out.HorizonlinkEntropy = es.HorizonlinkEntropy
	out.Entropy = es.Entropy

	as := AnalyzeActors(out.Moves, links, cfg)
	if !as.Skipped {
		out.CopyCount = as.CopyCount
		out.LinkDensitiesByActorPair = make(map[string]float64, len(as.Densities))
		out.ActorPairLinkCounts = make(map[string]int, len(as.Counts))
		for pair, d := range as.Densities {
			out.LinkDensitiesByActorPair[pair.String()] = d
			out.ActorPairLinkCounts[pair.String()] = as.Counts[pair]
		}
	}

	return out, nil
}

func resolveLinks(g *Graph, cfg Config) (*LinkMatrix, []string, error) {
	n := len(g.Moves)

	if g.Links != nil {
		switch {
		case g.Links.Size() == n:
			return g.Links, nil, nil
		case g.Links.Len() == 0 && n < 2:
			// Nothing to link; an empty import is as good as a full one.
			return NewLinkMatrix(n), nil, nil
		}
		return nil, nil, lerrors.InputErrorf(lerrors.ErrLinksIncomplete,
			"link matrix covers %d moves, graph has %d", g.Links.Size(), n).
			WithContextf("links", g.Links.Size()).
			WithContextf("moves", n)
	}

	links, zero, err := buildLinks(g.Moves, cfg)
	if err != nil {
		return nil, nil, err
	}
	var warnings []string
	for _, i := range zero {
		warnings = append(warnings, fmt.Sprintf("move %d has a zero-magnitude embedding; its similarities are 0", i))
	}
	return links, warnings, nil
}

// AnalyzeAll analyzes independent graphs concurrently, at most workers at a
// time (unbounded when workers <= 0). Results keep the input order. The first
// failure cancels the graphs not yet started.
func AnalyzeAll(ctx context.Context, graphs []*Graph, cfg Config, workers int) ([]*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]*Graph, len(graphs))
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}

	for i, g := range graphs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return lerrors.Wrap(err, lerrors.ErrAnalysisCanceled, lerrors.CategoryInternal, "analysis canceled").
					WithContextf("graph", i)
			}
			out, err := Analyze(g, cfg)
			if err != nil {
				return fmt.Errorf("graph %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
