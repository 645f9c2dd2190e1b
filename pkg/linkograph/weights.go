package linkograph

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/r3d91ll/fuzzylink/pkg/vecmath"
)

// TotalLinkWeight drops scores below minStrength, rescales the rest from
// [minStrength, 1] onto [0, 1] and sums them in input order.
func TotalLinkWeight(scores []float64, minStrength float64) float64 {
	from := vecmath.Interval{Min: minStrength, Max: 1}
	total := 0.0
	for _, s := range scores {
		if s >= minStrength {
			total += vecmath.Rescale(s, from, vecmath.UnitInterval)
		}
	}
	return total
}

// WeightStats holds the per-move weights and the graph-level figures derived
// from them.
type WeightStats struct {
	Backlink []float64
	Forelink []float64

	LinkDensityIndex  float64
	MaxBacklinkWeight float64
	MaxForelinkWeight float64

	// Critical move indexes, heaviest first.
	BacklinkCritical []int
	ForelinkCritical []int
}

// ComputeWeights aggregates the link matrix into backlink and forelink weights.
func ComputeWeights(links *LinkMatrix, cfg Config) WeightStats {
	n := links.Size()
	ws := WeightStats{
		Backlink: make([]float64, n),
		Forelink: make([]float64, n),
	}
	if n == 0 {
		return ws
	}

	for i := 0; i < n; i++ {
		ws.Backlink[i] = TotalLinkWeight(links.Row(i), cfg.MinLinkStrength)
		ws.Forelink[i] = TotalLinkWeight(links.Column(i), cfg.MinLinkStrength)
	}

	ws.LinkDensityIndex = TotalLinkWeight(links.All(), cfg.MinLinkStrength) / float64(n)
	ws.MaxBacklinkWeight = floats.Max(ws.Backlink)
	ws.MaxForelinkWeight = floats.Max(ws.Forelink)
	ws.BacklinkCritical = CriticalMoves(ws.Backlink, cfg.CriticalMoveCount)
	ws.ForelinkCritical = CriticalMoves(ws.Forelink, cfg.CriticalMoveCount)
	return ws
}

// CriticalMoves returns the indexes of the count heaviest weights, heaviest
// first. Equal weights keep index order.
func CriticalMoves(weights []float64, count int) []int {
	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return weights[order[a]] > weights[order[b]]
	})
	return order[:min(max(count, 0), len(order))]
}
