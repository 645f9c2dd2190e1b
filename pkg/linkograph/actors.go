package linkograph

import (
	"fmt"
	"strconv"
	"strings"
)

// ActorPair is an ordered pair of actors: the actor of a later move linking
// back to the actor of an earlier one.
type ActorPair struct {
	Later   int
	Earlier int
}

// String returns "later:earlier".
func (p ActorPair) String() string {
	return strconv.Itoa(p.Later) + ":" + strconv.Itoa(p.Earlier)
}

// ParseActorPair parses the "later:earlier" form.
func ParseActorPair(s string) (ActorPair, error) {
	later, earlier, ok := strings.Cut(s, ":")
	if !ok {
		return ActorPair{}, fmt.Errorf("actor pair %q: missing ':'", s)
	}
	l, err := strconv.Atoi(later)
	if err != nil {
		return ActorPair{}, fmt.Errorf("actor pair %q: %w", s, err)
	}
	e, err := strconv.Atoi(earlier)
	if err != nil {
		return ActorPair{}, fmt.Errorf("actor pair %q: %w", s, err)
	}
	return ActorPair{Later: l, Earlier: e}, nil
}

// ActorStats is the outcome of AnalyzeActors.
type ActorStats struct {
	// Skipped is true when fewer than two distinct actors are present.
	Skipped bool

	CopyCount int
	Densities map[ActorPair]float64
	Counts    map[ActorPair]int
}

// AnalyzeActors computes link density per ordered actor pair. Pairs scoring
// at or above cfg.CopyThreshold are near-verbatim copies: they are counted
// and otherwise ignored. The remaining raw scores are bucketed by actor pair
// and each bucket's density is its total link weight over its size.
func AnalyzeActors(moves []Move, links *LinkMatrix, cfg Config) ActorStats {
	if !multipleActors(moves) {
		return ActorStats{Skipped: true}
	}

	var order []ActorPair
	buckets := make(map[ActorPair][]float64)
	stats := ActorStats{}

	n := links.Size()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			score := links.scores[links.index(j, i)]
			if score >= cfg.CopyThreshold {
				stats.CopyCount++
				continue
			}
			pair := ActorPair{Later: moves[j].Actor, Earlier: moves[i].Actor}
			if _, ok := buckets[pair]; !ok {
				order = append(order, pair)
			}
			buckets[pair] = append(buckets[pair], score)
		}
	}

	stats.Densities = make(map[ActorPair]float64, len(order))
	stats.Counts = make(map[ActorPair]int, len(order))
	for _, pair := range order {
		scores := buckets[pair]
		stats.Densities[pair] = TotalLinkWeight(scores, cfg.MinLinkStrength) / float64(len(scores))
		stats.Counts[pair] = len(scores)
	}
	return stats
}

func multipleActors(moves []Move) bool {
	for _, m := range moves[min(1, len(moves)):] {
		if m.Actor != moves[0].Actor {
			return true
		}
	}
	return false
}
