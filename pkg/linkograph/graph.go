package linkograph

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

// Move is one contribution to a session, in sequence order.
type Move struct {
	Text      string     `json:"text"`
	Embedding []float64  `json:"embedding,omitempty"`
	Actor     int        `json:"actor"`
	Timestamp *time.Time `json:"timestamp,omitempty"`

	// Derived by Analyze.
	BacklinkWeight       float64 `json:"backlinkWeight"`
	ForelinkWeight       float64 `json:"forelinkWeight"`
	BacklinkEntropy      float64 `json:"backlinkEntropy"`
	ForelinkEntropy      float64 `json:"forelinkEntropy"`
	BacklinkCriticalMove bool    `json:"backlinkCriticalMove"`
	ForelinkCriticalMove bool    `json:"forelinkCriticalMove"`
}

// Validate checks the move carries text.
func (m Move) Validate() error {
	if strings.TrimSpace(m.Text) == "" {
		return lerrors.InputError(lerrors.ErrMoveInvalid, "move text is empty")
	}
	return nil
}

func (m *Move) resetDerived() {
	m.BacklinkWeight = 0
	m.ForelinkWeight = 0
	m.BacklinkEntropy = 0
	m.ForelinkEntropy = 0
	m.BacklinkCriticalMove = false
	m.ForelinkCriticalMove = false
}

// Graph is one analyzed session: its moves, the link matrix between them and
// the graph-level statistics.
type Graph struct {
	ID    string      `json:"id"`
	Name  string      `json:"name,omitempty"`
	Moves []Move      `json:"moves"`
	Links *LinkMatrix `json:"links,omitempty"`

	LinkDensityIndex   float64 `json:"linkDensityIndex"`
	MaxForelinkWeight  float64 `json:"maxForelinkWeight"`
	MaxBacklinkWeight  float64 `json:"maxBacklinkWeight"`
	BacklinkEntropy    float64 `json:"backlinkEntropy"`
	ForelinkEntropy    float64 `json:"forelinkEntropy"`
	HorizonlinkEntropy float64 `json:"horizonlinkEntropy"`
	Entropy            float64 `json:"entropy"`

	// CopyCount is the number of pairs at or above the copy threshold.
	// Only counted when more than one actor is present.
	CopyCount int `json:"copyCount"`

	// LinkDensitiesByActorPair is keyed "later:earlier" by actor.
	LinkDensitiesByActorPair map[string]float64 `json:"linkDensitiesByActorPair,omitempty"`

	// ActorPairLinkCounts is the number of pairs in each actor-pair bucket.
	ActorPairLinkCounts map[string]int `json:"actorPairLinkCounts,omitempty"`

	// Warnings lists degenerate inputs that analysis worked around.
	Warnings []string `json:"warnings,omitempty"`
}

// NewGraph returns a graph with a fresh ID.
func NewGraph(name string, moves []Move) *Graph {
	return &Graph{
		ID:    uuid.NewString(),
		Name:  name,
		Moves: moves,
	}
}

// Len returns the number of moves.
func (g *Graph) Len() int {
	return len(g.Moves)
}

// Actors returns the distinct actors in ascending order.
func (g *Graph) Actors() []int {
	seen := make(map[int]struct{})
	for _, m := range g.Moves {
		seen[m.Actor] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Clone returns a deep copy.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	out := *g
	out.Moves = make([]Move, len(g.Moves))
	for i, m := range g.Moves {
		m.Embedding = slices.Clone(m.Embedding)
		if m.Timestamp != nil {
			ts := *m.Timestamp
			m.Timestamp = &ts
		}
		out.Moves[i] = m
	}
	out.Links = g.Links.Clone()
	out.LinkDensitiesByActorPair = maps.Clone(g.LinkDensitiesByActorPair)
	out.ActorPairLinkCounts = maps.Clone(g.ActorPairLinkCounts)
	out.Warnings = slices.Clone(g.Warnings)
	return &out
}

// resetDerived clears everything Analyze computes. The link matrix is kept.
func (g *Graph) resetDerived() {
	for i := range g.Moves {
		g.Moves[i].resetDerived()
	}
	g.LinkDensityIndex = 0
	g.MaxForelinkWeight = 0
	g.MaxBacklinkWeight = 0
	g.BacklinkEntropy = 0
	g.ForelinkEntropy = 0
	g.HorizonlinkEntropy = 0
	g.Entropy = 0
	g.CopyCount = 0
	g.LinkDensitiesByActorPair = nil
	g.ActorPairLinkCounts = nil
	g.Warnings = nil
}
