package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r3d91ll/fuzzylink/pkg/embedding"
	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

func TestLoad_Testdata(t *testing.T) {
	s, err := Load("testdata/ideas.json")
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "testdata/ideas.json", s.Path)
	assert.Equal(t, []string{"1", "2", "10"}, s.EpisodeIDs())

	ep, err := s.Episode("1")
	require.NoError(t, err)
	require.Len(t, ep.Moves, 5)
	assert.Nil(t, ep.Links)
	assert.Equal(t, 1, ep.Moves[2].Actor)
	require.NotNil(t, ep.Moves[4].Timestamp)
	assert.Equal(t, 2024, ep.Moves[4].Timestamp.Year())

	ep2, err := s.Episode("2")
	require.NoError(t, err)
	require.NotNil(t, ep2.Links)
	score, err := ep2.Links.At(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.62, score)

	_, err = s.Episode("99")
	assert.True(t, lerrors.IsCode(err, lerrors.ErrEpisodeNotFound))
}

func TestEpisode_GraphWithImportedLinks(t *testing.T) {
	s, err := Load("testdata/ideas.json")
	require.NoError(t, err)
	ep, _ := s.Episode("2")

	g := ep.Graph()
	assert.Equal(t, "2", g.Name)
	assert.NotSame(t, ep.Links, g.Links)

	out, err := linkograph.Analyze(g, linkograph.DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, (0.62-0.35)/0.65, out.Moves[2].BacklinkWeight, 1e-9)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
		code string
	}{
		{"not json", `{{`, lerrors.ErrSessionParseFailed},
		{"top-level array", `[1, 2]`, lerrors.ErrSessionParseFailed},
		{"episode is a number", `{"1": 5}`, lerrors.ErrSessionInvalid},
		{"move without text", `{"1": [{"text": "a"}, {"actor": 1}]}`, lerrors.ErrSessionInvalid},
		{"bad move field", `{"1": [{"text": 7}]}`, lerrors.ErrSessionParseFailed},
		{"links forward reference", `{"1": {"moves": [{"text": "a"}, {"text": "b"}], "links": {"0": {"1": 0.5}}}}`, lerrors.ErrLinksInvalid},
		{"links too small", `{"1": {"moves": [{"text": "a"}, {"text": "b"}, {"text": "c"}], "links": {"1": {"0": 0.5}}}}`, lerrors.ErrSessionInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.json))
			require.Error(t, err)
			assert.True(t, lerrors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestDecode_DuplicateMovesWithFloat32Links(t *testing.T) {
	data := `{"1": {
		"moves": [{"text": "hello", "actor": 0}, {"text": "hello", "actor": 1}, {"text": "dog", "actor": 0}],
		"links": {"0": {}, "1": {"0": 1.0000001192092896}, "2": {"0": 0.2, "1": 0.2}}
	}}`
	s, err := Decode(strings.NewReader(data))
	require.NoError(t, err)

	ep, err := s.Episode("1")
	require.NoError(t, err)
	score, err := ep.Links.At(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	out, err := linkograph.Analyze(ep.Graph(), linkograph.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, out.CopyCount)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, lerrors.IsCode(err, lerrors.ErrSessionReadFailed))
}

func TestSave_RoundTrip(t *testing.T) {
	s, err := Load("testdata/ideas.json")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, s.Save(path, false))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.EpisodeIDs(), back.EpisodeIDs())
	for i, ep := range s.Episodes {
		assert.Equal(t, ep.Moves, back.Episodes[i].Moves, "episode %s", ep.ID)
		assert.Equal(t, ep.Links.All(), back.Episodes[i].Links.All(), "episode %s", ep.ID)
	}

	// Every episode is written in object form.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw["1"], "moves")
}

func TestEncode_Embeddings(t *testing.T) {
	s := New()
	s.Episodes = []*Episode{{ID: "a", Moves: []linkograph.Move{{Text: "x", Embedding: []float64{1, 2}, BacklinkWeight: 3}}}}

	var without, with bytes.Buffer
	require.NoError(t, s.Encode(&without, false))
	require.NoError(t, s.Encode(&with, true))

	assert.NotContains(t, without.String(), "embedding")
	assert.Contains(t, with.String(), `"embedding":[1,2]`)
	assert.NotContains(t, with.String(), "backlinkWeight", "derived fields are not persisted")
}

func TestSession_Analyze(t *testing.T) {
	s, err := Decode(strings.NewReader(`{
		"1": [{"text": "a", "embedding": [1, 0]}, {"text": "b", "embedding": [1, 0.1]}],
		"2": [{"text": "c", "embedding": [0, 1]}, {"text": "d", "embedding": [1, 0], "actor": 1}]
	}`))
	require.NoError(t, err)

	graphs, err := s.Analyze(context.Background(), linkograph.DefaultConfig(), 2)
	require.NoError(t, err)
	require.Len(t, graphs, 2)
	assert.Equal(t, "1", graphs[0].Name)
	assert.Greater(t, graphs[0].LinkDensityIndex, 0.0)
	assert.Equal(t, 0.0, graphs[1].LinkDensityIndex)
	assert.Contains(t, graphs[1].LinkDensitiesByActorPair, "1:0")
}

// -----------------------------------------------------------------------------
// AttachLinks
// -----------------------------------------------------------------------------

func newEmbedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts []string `json:"texts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		vectors := make([][]float32, len(req.Texts))
		for i, text := range req.Texts {
			// "hello" texts point one way, everything else another.
			if strings.HasPrefix(text, "hello") {
				vectors[i] = []float32{1, 0.1, 0}
			} else {
				vectors[i] = []float32{0, 1, float32(len(text)) / 10}
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"vectors": vectors, "dim": 3})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAttachLinks(t *testing.T) {
	srv := newEmbedServer(t)
	p := embedding.NewHTTP(embedding.HTTPConfig{URL: srv.URL, Dimension: 3})

	s, err := Load("testdata/ideas.json")
	require.NoError(t, err)
	before, _ := s.Episode("2")
	importedLinks := before.Links

	n, err := s.AttachLinks(context.Background(), p, linkograph.DefaultConfig(), AttachOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "episode 2 already had links")

	ep1, _ := s.Episode("1")
	require.NotNil(t, ep1.Links)
	assert.Equal(t, 5, ep1.Links.Size())
	hello, _ := ep1.Links.At(1, 0)
	assert.InDelta(t, 1.0, hello, 1e-6)
	assert.Empty(t, ep1.Moves[0].Embedding)

	ep2, _ := s.Episode("2")
	assert.Same(t, importedLinks, ep2.Links)

	n, err = s.AttachLinks(context.Background(), p, linkograph.DefaultConfig(), AttachOptions{Overwrite: true, KeepEmbeddings: true})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, ep1.Moves[0].Embedding, 3)
}

func TestAttachLinks_ProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	s, err := Load("testdata/ideas.json")
	require.NoError(t, err)

	_, err = s.AttachLinks(context.Background(), embedding.NewHTTP(embedding.HTTPConfig{URL: srv.URL}),
		linkograph.DefaultConfig(), AttachOptions{})
	require.True(t, lerrors.IsCode(err, lerrors.ErrProviderRequestFailed))
	le, _ := lerrors.AsLinkographError(err)
	assert.Equal(t, "1", le.Context["episode"])
}
