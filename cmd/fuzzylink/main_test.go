package main

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

	"github.com/r3d91ll/fuzzylink/pkg/config"
	"github.com/r3d91ll/fuzzylink/pkg/embedding"
	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
	"github.com/r3d91ll/fuzzylink/pkg/session"
	"github.com/r3d91ll/fuzzylink/pkg/spinner"
)

const linkedSession = `{
  "1": {
    "moves": [
      {"text": "a phrase"},
      {"text": "streetlights", "actor": 1},
      {"text": "LED"}
    ],
    "links": {"0": {}, "1": {"0": 0.21}, "2": {"0": 0.18, "1": 0.62}}
  },
  "2": {
    "moves": [{"text": "stream"}, {"text": "video stream"}],
    "links": {"1": {"0": 0.8}}
  }
}`

// run executes the CLI with args and returns stdout, stderr and the error.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// ----------------------------------------------------------------------------
// Command tree
// ----------------------------------------------------------------------------

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	if root.Use != "fuzzylink" {
		t.Errorf("expected Use 'fuzzylink', got %q", root.Use)
	}
	if root.Short == "" {
		t.Error("Short description should not be empty")
	}

	want := []string{"analyze", "links", "shell", "serve", "providers", "init", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}

	for _, flag := range []string{"config", "log-level"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "fuzzylink "+version+"\n" {
		t.Errorf("unexpected output %q", out)
	}
}

// ----------------------------------------------------------------------------
// init
// ----------------------------------------------------------------------------

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fuzzylink.yaml")

	out, _, err := run(t, "init", "--config", path)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "Config initialized at") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	out, _, err = run(t, "init", "--config", path)
	if err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	if !strings.Contains(out, "already exists") {
		t.Errorf("expected existing config notice, got %q", out)
	}

	out, _, err = run(t, "init", "--config", path, "--force")
	if err != nil {
		t.Fatalf("forced init failed: %v", err)
	}
	if !strings.Contains(out, "Config written to") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestBadConfigFails(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "bad.yaml", "analysis: [not, a, map]\n")
	sess := writeFile(t, dir, "session.json", linkedSession)

	_, _, err := run(t, "analyze", sess, "--config", cfg)
	if !lerrors.IsCategory(err, lerrors.CategoryConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

// ----------------------------------------------------------------------------
// analyze
// ----------------------------------------------------------------------------

func TestAnalyzeJSON(t *testing.T) {
	dir := t.TempDir()
	sess := writeFile(t, dir, "session.json", linkedSession)

	out, stderr, err := run(t, "analyze", sess, "--config", filepath.Join(dir, "none.yaml"))
	if err != nil {
		t.Fatalf("analyze failed: %v\n%s", err, stderr)
	}

	var reports []struct {
		Graph struct {
			Name  string `json:"name"`
			Moves []struct {
				BacklinkWeight float64 `json:"backlinkWeight"`
			} `json:"moves"`
		} `json:"graph"`
		Summary struct {
			MoveCount int `json:"moveCount"`
			LinkCount int `json:"linkCount"`
		} `json:"summary"`
		Hash struct {
			Hash string `json:"hash"`
		} `json:"hash"`
	}
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("stdout is not a JSON report array: %v\n%s", err, out)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].Graph.Name != "1" || reports[1].Graph.Name != "2" {
		t.Errorf("reports out of episode order: %q, %q", reports[0].Graph.Name, reports[1].Graph.Name)
	}
	if reports[0].Summary.MoveCount != 3 {
		t.Errorf("expected 3 moves, got %d", reports[0].Summary.MoveCount)
	}
	// Only 0.62 reaches the default 0.35 threshold.
	if reports[0].Summary.LinkCount != 1 {
		t.Errorf("expected 1 link, got %d", reports[0].Summary.LinkCount)
	}
	if reports[0].Hash.Hash == "" {
		t.Error("report hash missing")
	}
	if !strings.Contains(stderr, "Analyzing 2 episodes") {
		t.Errorf("expected progress on stderr, got %q", stderr)
	}
}

func TestAnalyzeThresholdFlag(t *testing.T) {
	dir := t.TempDir()
	sess := writeFile(t, dir, "session.json", linkedSession)
	cfg := filepath.Join(dir, "none.yaml")

	out, _, err := run(t, "analyze", sess, "--config", cfg, "--threshold", "0.1")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if !strings.Contains(out, `"linkCount": 3`) {
		t.Errorf("expected all three pairs linked at 0.1:\n%s", out)
	}

	_, _, err = run(t, "analyze", sess, "--config", cfg, "--threshold", "1.5")
	if !lerrors.IsCode(err, lerrors.ErrConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestAnalyzeCSV(t *testing.T) {
	dir := t.TempDir()
	sess := writeFile(t, dir, "session.json", linkedSession)
	outPath := filepath.Join(dir, "graphs.csv")

	_, _, err := run(t, "analyze", sess, "--config", filepath.Join(dir, "none.yaml"), "-f", "csv", "-o", outPath)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "graph_id,name,moves") {
		t.Errorf("unexpected header %q", lines[0])
	}
}

func TestAnalyzeFiles(t *testing.T) {
	dir := t.TempDir()
	sess := writeFile(t, dir, "session.json", linkedSession)
	outDir := filepath.Join(dir, "exports")

	out, _, err := run(t, "analyze", sess, "--config", filepath.Join(dir, "none.yaml"), "--format", "files", "--out", outDir)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	for _, p := range []string{
		filepath.Join(outDir, "1", "report.json"),
		filepath.Join(outDir, "1", "moves.csv"),
		filepath.Join(outDir, "1", "links.csv"),
		filepath.Join(outDir, "1", "actors.csv"),
		filepath.Join(outDir, "2", "report.json"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s", p)
		}
		if !strings.Contains(out, p) {
			t.Errorf("output does not list %s", p)
		}
	}
	// Episode 2 has a single actor.
	if _, err := os.Stat(filepath.Join(outDir, "2", "actors.csv")); err == nil {
		t.Error("single-actor episode should have no actors table")
	}
}

func TestAnalyzeErrors(t *testing.T) {
	dir := t.TempDir()
	sess := writeFile(t, dir, "session.json", linkedSession)
	bare := writeFile(t, dir, "bare.json", `{"1": [{"text": "a"}, {"text": "b"}]}`)
	cfg := filepath.Join(dir, "none.yaml")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown format", []string{"analyze", sess, "--config", cfg, "-f", "xml"}, lerrors.ErrCommandInvalidArg},
		{"missing session", []string{"analyze", filepath.Join(dir, "nope.json"), "--config", cfg}, lerrors.ErrSessionReadFailed},
		{"no embeddings or links", []string{"analyze", bare, "--config", cfg}, lerrors.ErrEmbeddingMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if !lerrors.IsCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}

	if _, _, err := run(t, "analyze"); err == nil {
		t.Error("expected an error without a session argument")
	}
}

// ----------------------------------------------------------------------------
// links
// ----------------------------------------------------------------------------

// embedServer answers /batch_embed with [len(text), 1] per text.
func embedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/batch_embed":
			var req struct {
				Texts []string `json:"texts"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			vectors := make([][]float32, len(req.Texts))
			for i, text := range req.Texts {
				vectors[i] = []float32{float32(len(text)), 1}
			}
			json.NewEncoder(w).Encode(map[string]any{"vectors": vectors, "dim": 2})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func providerConfig(t *testing.T, dir, url string) string {
	t.Helper()
	return writeFile(t, dir, "fuzzylink.yaml", `embedding:
  provider: http
  url: `+url+`
  dimension: 2
  cache_size: 0
`)
}

func TestLinksCommand(t *testing.T) {
	srv := embedServer(t)
	dir := t.TempDir()
	cfg := providerConfig(t, dir, srv.URL)
	in := writeFile(t, dir, "session.json", `{"b": [{"text": "hello"}, {"text": "hello there"}, {"text": "hi", "actor": 1}]}`)
	outPath := filepath.Join(dir, "linked.json")

	out, stderr, err := run(t, "links", in, "--config", cfg, "-o", outPath)
	if err != nil {
		t.Fatalf("links failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(out, outPath) {
		t.Errorf("unexpected output %q", out)
	}

	sess, err := session.Load(outPath)
	if err != nil {
		t.Fatalf("load linked session: %v", err)
	}
	ep, err := sess.Episode("b")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Links == nil || ep.Links.Size() != 3 {
		t.Fatalf("expected a 3-move link matrix, got %+v", ep.Links)
	}
	for _, m := range ep.Moves {
		if len(m.Embedding) != 0 {
			t.Error("embeddings should not be written without --keep-embeddings")
		}
	}

	// The linked session now analyzes without a provider.
	if _, _, err := run(t, "analyze", outPath, "--config", filepath.Join(dir, "none.yaml")); err != nil {
		t.Errorf("analyze of linked session failed: %v", err)
	}
}

func TestAnalyzeEmbed(t *testing.T) {
	srv := embedServer(t)
	dir := t.TempDir()
	cfg := providerConfig(t, dir, srv.URL)
	sess := writeFile(t, dir, "session.json", `{"1": [{"text": "hello"}, {"text": "hello there"}]}`)

	out, stderr, err := run(t, "analyze", sess, "--config", cfg, "--embed")
	if err != nil {
		t.Fatalf("analyze --embed failed: %v\n%s", err, stderr)
	}
	if !strings.Contains(stderr, "Embedding with http") {
		t.Errorf("expected embedding progress, got %q", stderr)
	}
	if !strings.Contains(out, `"moveCount": 2`) {
		t.Errorf("unexpected report:\n%s", out)
	}
}

func TestLinksWithoutProvider(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "fuzzylink.yaml", "embedding:\n  provider: none\n")
	sess := writeFile(t, dir, "session.json", linkedSession)

	_, _, err := run(t, "links", sess, "--config", cfg)
	if !lerrors.IsCode(err, lerrors.ErrProviderNotConfigured) {
		t.Errorf("expected PROVIDER_NOT_CONFIGURED, got %v", err)
	}
}

// ----------------------------------------------------------------------------
// providers
// ----------------------------------------------------------------------------

func TestProvidersCommand(t *testing.T) {
	srv := embedServer(t)
	dir := t.TempDir()
	cfg := providerConfig(t, dir, srv.URL)
	t.Setenv("OPENAI_API_KEY", "")

	out, _, err := run(t, "providers", "--config", cfg)
	if err != nil {
		t.Fatalf("providers failed: %v", err)
	}
	if !strings.Contains(out, "* ✓ http") {
		t.Errorf("expected available active http provider:\n%s", out)
	}
	if !strings.Contains(out, "openai") || !strings.Contains(out, "not configured") {
		t.Errorf("expected openai to be reported as not configured:\n%s", out)
	}
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

func TestEpisodeProgress(t *testing.T) {
	var buf bytes.Buffer
	tty := false
	bar := spinner.NewProgressWithConfig(spinner.ProgressConfig{Total: 5, Writer: &buf, IsTTY: &tty})
	bar.Start()

	report := episodeProgress(bar, 5)
	report(2, 3)
	report(3, 3)
	if bar.Current() != 3 {
		t.Fatalf("expected 3 after the first episode, got %d", bar.Current())
	}
	report(1, 2)
	if bar.Current() != 4 {
		t.Errorf("expected second episode to continue from 3, got %d", bar.Current())
	}
	report(2, 2)
	if bar.Current() != 5 {
		t.Errorf("expected 5, got %d", bar.Current())
	}
}

const partlyEmbeddedSession = `{
  "a": [{"text": "hello", "embedding": [5, 1]}, {"text": "hello there"}, {"text": "hi", "embedding": [2, 1]}],
  "b": [{"text": "stream", "embedding": [6, 1]}, {"text": "video stream", "embedding": [12, 1]}],
  "c": {"moves": [{"text": "x"}, {"text": "y"}], "links": {"1": {"0": 0.4}}}
}`

func TestPendingMoves(t *testing.T) {
	sess, err := session.Decode(strings.NewReader(partlyEmbeddedSession))
	if err != nil {
		t.Fatal(err)
	}
	if got := pendingMoves(sess, false); got != 1 {
		t.Errorf("pendingMoves() = %d, want 1", got)
	}
	if got := pendingMoves(sess, true); got != 7 {
		t.Errorf("pendingMoves(overwrite) = %d, want 7", got)
	}
}

func TestEpisodeProgressReachesTotalWithPreEmbeddedMoves(t *testing.T) {
	srv := embedServer(t)
	sess, err := session.Decode(strings.NewReader(partlyEmbeddedSession))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	tty := false
	total := pendingMoves(sess, false)
	bar := spinner.NewProgressWithConfig(spinner.ProgressConfig{Total: total, Writer: &buf, IsTTY: &tty})
	bar.Start()

	provider := embedding.NewHTTP(embedding.HTTPConfig{URL: srv.URL, Dimension: 2})
	n, err := sess.AttachLinks(context.Background(), provider, linkograph.DefaultConfig(), session.AttachOptions{
		Embedding: embedding.Options{KeepExisting: true, Progress: episodeProgress(bar, total)},
	})
	if err != nil {
		t.Fatalf("AttachLinks() error = %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 episodes linked, got %d", n)
	}
	if bar.Current() != bar.Total() {
		t.Errorf("progress stopped at %d of %d", bar.Current(), bar.Total())
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LogConfig{Level: "debug", Format: "json"})
	logger.Debug("hello", "k", 1)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a JSON log line: %v\n%s", err, buf.String())
	}
	if rec["msg"] != "hello" {
		t.Errorf("unexpected record %v", rec)
	}
}
