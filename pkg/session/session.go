// Package session loads and saves session files: a JSON object of episodes,
// each a sequence of moves, optionally with a pre-computed link matrix.
//
// Two episode shapes are accepted:
//
//	{"1": [{"text": "hello"}, {"text": "hello world", "actor": 1}]}
//	{"1": {"moves": [...], "links": {"0": {}, "1": {"0": 0.42}}}}
//
// The second is what AttachLinks writes.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

// Session is a loaded session file.
type Session struct {
	ID       string     `json:"id"`
	Path     string     `json:"path,omitempty"`
	Episodes []*Episode `json:"episodes"`
}

// Episode is one sequence of moves.
type Episode struct {
	ID    string                 `json:"id"`
	Moves []linkograph.Move      `json:"moves"`
	Links *linkograph.LinkMatrix `json:"links,omitempty"`
}

// wireMove keeps derived fields out of session files.
type wireMove struct {
	Text      string     `json:"text"`
	Actor     int        `json:"actor,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Embedding []float64  `json:"embedding,omitempty"`
}

type wireEpisode struct {
	Moves []wireMove               `json:"moves"`
	Links *linkograph.LinkMatrix `json:"links,omitempty"`
}

// New returns an empty session.
func New() *Session {
	return &Session{ID: uuid.NewString()}
}

// Load reads a session file.
func Load(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, lerrors.WrapSession(err, lerrors.ErrSessionReadFailed, "failed to open session file").
			WithContext("path", path)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		if le, ok := lerrors.AsLinkographError(err); ok {
			le.WithContext("path", path)
		}
		return nil, err
	}
	s.Path = path
	return s, nil
}

// Decode reads a session from r. Episodes come back sorted by ID, numerically
// when both IDs are integers.
func Decode(r io.Reader) (*Session, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, lerrors.WrapSession(err, lerrors.ErrSessionParseFailed, "session is not a JSON object of episodes")
	}

	s := New()
	for id, data := range raw {
		ep, err := decodeEpisode(id, data)
		if err != nil {
			return nil, err
		}
		s.Episodes = append(s.Episodes, ep)
	}
	sortEpisodes(s.Episodes)
	return s, nil
}

func decodeEpisode(id string, data json.RawMessage) (*Episode, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, episodeError(id, "episode is empty")
	}

	var we wireEpisode
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &we.Moves); err != nil {
			return nil, decodeError(err, id)
		}
	case '{':
		if err := json.Unmarshal(data, &we); err != nil {
			return nil, decodeError(err, id)
		}
	default:
		return nil, episodeError(id, "episode must be a move array or an object with moves")
	}

	ep := &Episode{ID: id, Links: we.Links, Moves: make([]linkograph.Move, len(we.Moves))}
	for i, wm := range we.Moves {
		ep.Moves[i] = linkograph.Move{
			Text:      wm.Text,
			Actor:     wm.Actor,
			Timestamp: wm.Timestamp,
			Embedding: wm.Embedding,
		}
	}
	if err := ep.Validate(); err != nil {
		return nil, err
	}
	return ep, nil
}

// decodeError keeps link matrix errors as they are and wraps JSON errors.
func decodeError(err error, id string) error {
	if le, ok := lerrors.AsLinkographError(err); ok {
		return le.WithContext("episode", id)
	}
	return lerrors.WrapSession(err, lerrors.ErrSessionParseFailed, "failed to decode episode").
		WithContext("episode", id)
}

func episodeError(id, msg string) *lerrors.LinkographError {
	return lerrors.SessionError(lerrors.ErrSessionInvalid, msg).WithContext("episode", id)
}

func sortEpisodes(eps []*Episode) {
	sort.SliceStable(eps, func(a, b int) bool {
		ia, errA := strconv.Atoi(eps[a].ID)
		ib, errB := strconv.Atoi(eps[b].ID)
		if errA == nil && errB == nil {
			return ia < ib
		}
		return eps[a].ID < eps[b].ID
	})
}

// Validate checks every move has text and any link matrix covers every move.
func (e *Episode) Validate() error {
	for i, m := range e.Moves {
		if err := m.Validate(); err != nil {
			return episodeError(e.ID, "move has no text").WithContextf("move", i)
		}
	}
	if e.Links != nil && e.Links.Size() != len(e.Moves) && !(e.Links.Len() == 0 && len(e.Moves) < 2) {
		return episodeError(e.ID, "link matrix does not match the number of moves").
			WithContextf("moves", len(e.Moves)).
			WithContextf("links", e.Links.Size()).
			WithSuggestion("Recompute links with 'fuzzylink links'")
	}
	return nil
}

// Graph builds the linkograph graph for the episode. The graph is named after
// the episode and carries its links when present.
func (e *Episode) Graph() *linkograph.Graph {
	moves := make([]linkograph.Move, len(e.Moves))
	copy(moves, e.Moves)
	g := linkograph.NewGraph(e.ID, moves)
	g.Links = e.Links.Clone()
	return g
}

// Episode returns the episode with the given ID.
func (s *Session) Episode(id string) (*Episode, error) {
	for _, ep := range s.Episodes {
		if ep.ID == id {
			return ep, nil
		}
	}
	return nil, lerrors.SessionErrorf(lerrors.ErrEpisodeNotFound, "episode %q not found", id).
		WithContext("episode", id).
		WithSuggestion("Use /episodes to list the available episodes")
}

// EpisodeIDs returns the episode IDs in order.
func (s *Session) EpisodeIDs() []string {
	ids := make([]string, len(s.Episodes))
	for i, ep := range s.Episodes {
		ids[i] = ep.ID
	}
	return ids
}

// Graphs returns one graph per episode, in episode order.
func (s *Session) Graphs() []*linkograph.Graph {
	graphs := make([]*linkograph.Graph, len(s.Episodes))
	for i, ep := range s.Episodes {
		graphs[i] = ep.Graph()
	}
	return graphs
}

// Encode writes the session in the object-per-episode form. Embeddings are
// written only when keepEmbeddings is set.
func (s *Session) Encode(w io.Writer, keepEmbeddings bool) error {
	out := make(map[string]wireEpisode, len(s.Episodes))
	for _, ep := range s.Episodes {
		we := wireEpisode{Links: ep.Links, Moves: make([]wireMove, len(ep.Moves))}
		for i, m := range ep.Moves {
			we.Moves[i] = wireMove{Text: m.Text, Actor: m.Actor, Timestamp: m.Timestamp}
			if keepEmbeddings {
				we.Moves[i].Embedding = m.Embedding
			}
		}
		out[ep.ID] = we
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return lerrors.WrapSession(err, lerrors.ErrSessionWriteFailed, "failed to encode session")
	}
	return nil
}

// Save writes the session to path via a temporary file in the same directory.
func (s *Session) Save(path string, keepEmbeddings bool) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return lerrors.WrapSession(err, lerrors.ErrSessionWriteFailed, "failed to create session file").
			WithContext("path", path)
	}
	defer os.Remove(tmp.Name())

	if err := s.Encode(tmp, keepEmbeddings); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return lerrors.WrapSession(err, lerrors.ErrSessionWriteFailed, "failed to write session file").
			WithContext("path", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return lerrors.WrapSession(err, lerrors.ErrSessionWriteFailed, "failed to replace session file").
			WithContext("path", path)
	}
	return nil
}

// Analyze analyzes every episode, up to workers at a time.
func (s *Session) Analyze(ctx context.Context, cfg linkograph.Config, workers int) ([]*linkograph.Graph, error) {
	return linkograph.AnalyzeAll(ctx, s.Graphs(), cfg, workers)
}

func withEpisode(err error, id string) error {
	if le, ok := lerrors.AsLinkographError(err); ok {
		le.WithContext("episode", id)
	}
	return err
}
