package linkograph

import (
	"gonum.org/v1/gonum/stat"
)

// Summary is a compact overview of an analyzed graph.
type Summary struct {
	MoveCount        int     `json:"moveCount"`
	ActorCount       int     `json:"actorCount"`
	PairCount        int     `json:"pairCount"`
	LinkCount        int     `json:"linkCount"`
	MeanScore        float64 `json:"meanScore"`
	StdDevScore      float64 `json:"stdDevScore"`
	LinkDensityIndex float64 `json:"linkDensityIndex"`
	Entropy          float64 `json:"entropy"`
	CopyCount        int     `json:"copyCount"`
	BacklinkCritical []int   `json:"backlinkCritical"`
	ForelinkCritical []int   `json:"forelinkCritical"`
}

// Summary describes g. LinkCount counts pairs at or above
// cfg.MinLinkStrength; the score mean and standard deviation cover every
// stored pair. Critical moves are listed in index order.
func (g *Graph) Summary(cfg Config) Summary {
	s := Summary{
		MoveCount:        len(g.Moves),
		ActorCount:       len(g.Actors()),
		LinkDensityIndex: g.LinkDensityIndex,
		Entropy:          g.Entropy,
		CopyCount:        g.CopyCount,
		BacklinkCritical: []int{},
		ForelinkCritical: []int{},
	}

	scores := g.Links.All()
	s.PairCount = len(scores)
	for _, v := range scores {
		if v >= cfg.MinLinkStrength {
			s.LinkCount++
		}
	}
	switch {
	case len(scores) >= 2:
		s.MeanScore, s.StdDevScore = stat.MeanStdDev(scores, nil)
	case len(scores) == 1:
		s.MeanScore = scores[0]
	}

	for i, m := range g.Moves {
		if m.BacklinkCriticalMove {
			s.BacklinkCritical = append(s.BacklinkCritical, i)
		}
		if m.ForelinkCriticalMove {
			s.ForelinkCritical = append(s.ForelinkCritical, i)
		}
	}
	return s
}
