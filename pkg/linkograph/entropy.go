package linkograph

import "math"

// BinaryEntropy returns H(p) = -p*log2(p) - (1-p)*log2(1-p) in bits, with
// 0*log2(0) = 0. p is clamped into [0, 1].
func BinaryEntropy(p float64) float64 {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return 0
	}
	return -p*math.Log2(p) - (1-p)*math.Log2(1-p)
}

// EntropyStats holds per-move entropies and the graph totals.
type EntropyStats struct {
	Backlink []float64
	Forelink []float64

	BacklinkEntropy    float64
	ForelinkEntropy    float64
	HorizonlinkEntropy float64
	Entropy            float64
}

// ComputeEntropy treats each move's backlinks and forelinks as a binary
// variable that is "on" with probability weight / possible links, where move
// i has i possible backlinks and n-i-1 possible forelinks. Moves with no
// possible links in a direction contribute 0.
//
// Horizon entropy does the same per link distance h in [1, n-1] over the n-h
// pairs (i, i+h). The single pair at the largest distance is included.
func ComputeEntropy(links *LinkMatrix, ws WeightStats, cfg Config) EntropyStats {
	n := links.Size()
	es := EntropyStats{
		Backlink: make([]float64, n),
		Forelink: make([]float64, n),
	}

	for i := 0; i < n; i++ {
		if possible := i; possible > 0 {
			es.Backlink[i] = BinaryEntropy(ws.Backlink[i] / float64(possible))
		}
		if possible := n - i - 1; possible > 0 {
			es.Forelink[i] = BinaryEntropy(ws.Forelink[i] / float64(possible))
		}
		es.BacklinkEntropy += es.Backlink[i]
		es.ForelinkEntropy += es.Forelink[i]
	}

	for h := 1; h < n; h++ {
		p := TotalLinkWeight(links.Horizon(h), cfg.MinLinkStrength) / float64(n-h)
		es.HorizonlinkEntropy += BinaryEntropy(p)
	}

	es.Entropy = es.BacklinkEntropy + es.ForelinkEntropy + es.HorizonlinkEntropy
	return es
}
