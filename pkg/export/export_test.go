package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

func testConfig() linkograph.Config {
	cfg := linkograph.DefaultConfig()
	cfg.CriticalMoveCount = 1
	return cfg
}

// analyzedGraph has a copy between moves 0 and 1 and an unrelated move 2.
func analyzedGraph(t *testing.T) *linkograph.Graph {
	t.Helper()
	ts := time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)
	g := linkograph.NewGraph("demo", []linkograph.Move{
		{Text: "a bridge", Embedding: []float64{1, 0}, Actor: 0, Timestamp: &ts},
		{Text: "a bridge, again", Embedding: []float64{1, 0}, Actor: 1},
		{Text: "a tunnel", Embedding: []float64{0, 1}, Actor: 0},
	})
	out, err := linkograph.Analyze(g, testConfig())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return out
}

func readCSV(t *testing.T, data string, comma rune) [][]string {
	t.Helper()
	r := csv.NewReader(strings.NewReader(data))
	r.Comma = comma
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV output: %v", err)
	}
	return records
}

// -----------------------------------------------------------------------------
// CSVConfig Tests
// -----------------------------------------------------------------------------

func TestDefaultCSVConfig(t *testing.T) {
	config := DefaultCSVConfig()

	if config.Dialect != DialectStandard {
		t.Errorf("expected Dialect %q, got %q", DialectStandard, config.Dialect)
	}
	if !config.IncludeHeader {
		t.Error("expected IncludeHeader to be true by default")
	}
	if config.Precision != 6 {
		t.Errorf("expected Precision 6, got %d", config.Precision)
	}
	if config.NAString != "NA" {
		t.Errorf("expected NAString %q, got %q", "NA", config.NAString)
	}
	if !config.IncludeText {
		t.Error("expected IncludeText to be true by default")
	}
}

// -----------------------------------------------------------------------------
// CSVWriter Tests
// -----------------------------------------------------------------------------

func TestCSVWriter_WriteMoves(t *testing.T) {
	g := analyzedGraph(t)

	var buf bytes.Buffer
	cw := NewCSVWriter(&buf, nil)
	if err := cw.WriteMoves(g); err != nil {
		t.Fatalf("WriteMoves() error = %v", err)
	}
	if err := cw.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	records := readCSV(t, buf.String(), ',')
	if len(records) != 4 {
		t.Fatalf("expected 4 records (header + 3 moves), got %d", len(records))
	}
	if cw.RowsWritten() != 3 {
		t.Errorf("expected RowsWritten 3, got %d", cw.RowsWritten())
	}

	header := records[0]
	want := cw.MoveHeaders()
	if strings.Join(header, ",") != strings.Join(want, ",") {
		t.Errorf("header = %v, want %v", header, want)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}

	first, second := records[1], records[2]
	if first[col["graph"]] != "demo" {
		t.Errorf("graph = %q, want demo", first[col["graph"]])
	}
	if first[col["timestamp"]] != "2024-03-01T10:15:00Z" {
		t.Errorf("timestamp = %q", first[col["timestamp"]])
	}
	if second[col["timestamp"]] != "NA" {
		t.Errorf("missing timestamp = %q, want NA", second[col["timestamp"]])
	}
	if first[col["forelink_weight"]] != "1.000000" {
		t.Errorf("forelink_weight of move 0 = %q, want 1.000000", first[col["forelink_weight"]])
	}
	if second[col["backlink_weight"]] != "1.000000" {
		t.Errorf("backlink_weight of move 1 = %q, want 1.000000", second[col["backlink_weight"]])
	}
	if first[col["forelink_critical"]] != "TRUE" || first[col["backlink_critical"]] != "FALSE" {
		t.Errorf("move 0 critical flags = %q/%q", first[col["backlink_critical"]], first[col["forelink_critical"]])
	}
	if second[col["backlink_critical"]] != "TRUE" {
		t.Errorf("move 1 backlink_critical = %q, want TRUE", second[col["backlink_critical"]])
	}
	if second[col["text"]] != "a bridge, again" {
		t.Errorf("text with comma not preserved: %q", second[col["text"]])
	}
}

func TestCSVWriter_WithoutTextOrHeader(t *testing.T) {
	g := analyzedGraph(t)

	config := DefaultCSVConfig()
	config.IncludeText = false
	config.IncludeHeader = false

	var buf bytes.Buffer
	cw := NewCSVWriter(&buf, config)
	if err := cw.WriteMoves(g); err != nil {
		t.Fatalf("WriteMoves() error = %v", err)
	}
	cw.Flush()

	records := readCSV(t, buf.String(), ',')
	if len(records) != 3 {
		t.Fatalf("expected 3 records without header, got %d", len(records))
	}
	if len(records[0]) != len(cw.MoveHeaders()) {
		t.Errorf("row has %d fields, headers list %d", len(records[0]), len(cw.MoveHeaders()))
	}
	for _, h := range cw.MoveHeaders() {
		if h == "text" {
			t.Error("text column should be omitted")
		}
	}
}

func TestCSVWriter_Dialects(t *testing.T) {
	g := analyzedGraph(t)

	t.Run("tsv", func(t *testing.T) {
		config := DefaultCSVConfig()
		config.Dialect = DialectTSV

		var buf bytes.Buffer
		cw := NewCSVWriter(&buf, config)
		if err := cw.WriteGraphs([]*linkograph.Graph{g}); err != nil {
			t.Fatalf("WriteGraphs() error = %v", err)
		}
		cw.Flush()

		records := readCSV(t, buf.String(), '\t')
		if len(records) != 2 || records[0][0] != "graph_id" {
			t.Errorf("unexpected TSV output: %q", buf.String())
		}
	})

	t.Run("excel", func(t *testing.T) {
		config := DefaultCSVConfig()
		config.Dialect = DialectExcel

		var buf bytes.Buffer
		cw := NewCSVWriter(&buf, config)
		if err := cw.WriteGraphs([]*linkograph.Graph{g}); err != nil {
			t.Fatalf("WriteGraphs() error = %v", err)
		}
		cw.Flush()

		out := buf.String()
		if !strings.HasPrefix(out, utf8BOM) {
			t.Error("excel dialect should start with a byte order mark")
		}
		if !strings.Contains(out, "\r\n") {
			t.Error("excel dialect should use CRLF line endings")
		}
	})
}

func TestCSVWriter_WriteLinks(t *testing.T) {
	g := analyzedGraph(t)

	var buf bytes.Buffer
	cw := NewCSVWriter(&buf, nil)
	if err := cw.WriteLinks(g, 0.35); err != nil {
		t.Fatalf("WriteLinks() error = %v", err)
	}
	cw.Flush()

	records := readCSV(t, buf.String(), ',')
	if len(records) != 4 {
		t.Fatalf("expected header + 3 pairs, got %d records", len(records))
	}
	// header: graph, i, j, horizon, score, weight
	if got := strings.Join(records[1][1:], ","); got != "1,0,1,1.000000,1.000000" {
		t.Errorf("pair (1,0) = %q", got)
	}
	if got := strings.Join(records[2][1:], ","); got != "2,0,2,0.000000,0.000000" {
		t.Errorf("pair (2,0) = %q", got)
	}
}

func TestCSVWriter_WriteActorDensities(t *testing.T) {
	g := analyzedGraph(t)

	var buf bytes.Buffer
	cw := NewCSVWriter(&buf, nil)
	if err := cw.WriteActorDensities(g); err != nil {
		t.Fatalf("WriteActorDensities() error = %v", err)
	}
	cw.Flush()

	records := readCSV(t, buf.String(), ',')
	if len(records) != 3 {
		t.Fatalf("expected header + 2 pairs, got %d records", len(records))
	}
	if records[1][1] != "0:0" || records[2][1] != "0:1" {
		t.Errorf("pairs not sorted: %q, %q", records[1][1], records[2][1])
	}
	if records[2][2] != "0" || records[2][3] != "1" {
		t.Errorf("pair 0:1 split as later=%q earlier=%q", records[2][2], records[2][3])
	}
	if records[2][5] != "1" {
		t.Errorf("pair 0:1 links = %q, want 1", records[2][5])
	}
}

func TestCSVWriter_FormatFloat(t *testing.T) {
	cw := NewCSVWriter(&bytes.Buffer{}, &CSVConfig{Precision: 2, NAString: "NA"})

	tests := []struct {
		in   float64
		want string
	}{
		{0.125, "0.12"},
		{1, "1.00"},
		{math.NaN(), "NA"},
		{math.Inf(1), "NA"},
	}
	for _, tt := range tests {
		if got := cw.formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	exact := NewCSVWriter(&bytes.Buffer{}, &CSVConfig{Precision: -1})
	if got := exact.formatFloat(0.675); got != "0.675" {
		t.Errorf("precision -1 = %q, want 0.675", got)
	}
}

// -----------------------------------------------------------------------------
// Hash Tests
// -----------------------------------------------------------------------------

func TestHashGraph_Deterministic(t *testing.T) {
	a := HashGraph(analyzedGraph(t), testConfig())
	b := HashGraph(analyzedGraph(t), testConfig())

	if a.Hash != b.Hash {
		t.Errorf("identical analyses hashed differently: %s vs %s", a.Hash, b.Hash)
	}
	if len(a.Hash) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a.Hash))
	}
	if a.Algorithm != HashAlgorithm {
		t.Errorf("Algorithm = %q", a.Algorithm)
	}
	if len(a.ShortHash()) != 8 || !strings.HasPrefix(a.Hash, a.ShortHash()) {
		t.Errorf("ShortHash() = %q", a.ShortHash())
	}
}

func TestHashGraph_SensitiveToInputs(t *testing.T) {
	g := analyzedGraph(t)
	base := HashGraph(g, testConfig()).Hash

	cfg := testConfig()
	cfg.MinLinkStrength = 0.4
	if HashGraph(g, cfg).Hash == base {
		t.Error("changing MinLinkStrength should change the hash")
	}

	changed := g.Clone()
	changed.Moves[2].BacklinkEntropy += 1e-12
	if HashGraph(changed, testConfig()).Hash == base {
		t.Error("a tiny change to a derived value should change the hash")
	}

	withModel := NewHashBuilder().WithConfig(testConfig()).WithGraph(g).WithParameter("model", "m").Build()
	if withModel.Hash == base {
		t.Error("parameters should change the hash")
	}

	withVersion := NewHashBuilder().WithToolVersion("9.9.9").WithConfig(testConfig()).WithGraph(g).Build()
	if withVersion.Hash != base {
		t.Error("tool version should not change the hash")
	}
}

func TestAnalysisHash_Verify(t *testing.T) {
	g := analyzedGraph(t)
	h := NewHashBuilder().WithConfig(testConfig()).WithGraph(g).WithParameter("model", "m").Build()

	if !h.Verify(g, testConfig()) {
		t.Error("Verify() should accept the graph it was built from")
	}

	data, err := h.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	var back AnalysisHash
	if err := json.Unmarshal([]byte(data), &back); err != nil {
		t.Fatalf("failed to decode hash: %v", err)
	}
	if !back.Verify(g, testConfig()) {
		t.Error("Verify() should survive a JSON round trip")
	}

	tampered := g.Clone()
	tampered.LinkDensityIndex = 0
	if h.Verify(tampered, testConfig()) {
		t.Error("Verify() should reject a modified graph")
	}
	if (*AnalysisHash)(nil).Verify(g, testConfig()) {
		t.Error("nil hash should not verify")
	}
}

// -----------------------------------------------------------------------------
// Report Tests
// -----------------------------------------------------------------------------

func TestWriteFiles(t *testing.T) {
	g := analyzedGraph(t)
	dir := t.TempDir()

	files, err := WriteFiles(dir, g, testConfig(), nil, "1.0.0")
	if err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}
	if files.Dir != filepath.Join(dir, "demo") {
		t.Errorf("Dir = %q", files.Dir)
	}
	if len(files.Paths()) != 4 {
		t.Errorf("expected 4 files, got %v", files.Paths())
	}
	for _, p := range files.Paths() {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}

	data, err := os.ReadFile(files.Report)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	var report struct {
		Summary struct {
			MoveCount int `json:"moveCount"`
			CopyCount int `json:"copyCount"`
		} `json:"summary"`
		Config linkograph.Config `json:"config"`
		Hash   AnalysisHash      `json:"hash"`
		Graph  linkograph.Graph  `json:"graph"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.Summary.MoveCount != 3 || report.Summary.CopyCount != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if report.Hash.ToolVersion != "1.0.0" {
		t.Errorf("ToolVersion = %q", report.Hash.ToolVersion)
	}
	if !report.Hash.Verify(&report.Graph, report.Config) {
		t.Error("hash in report should verify against the decoded graph")
	}
}

func TestWriteFiles_SingleActorSkipsActorTable(t *testing.T) {
	g, err := linkograph.Analyze(linkograph.NewGraph("solo", []linkograph.Move{
		{Text: "x", Embedding: []float64{1, 0}},
		{Text: "y", Embedding: []float64{1, 1}},
	}), testConfig())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	config := DefaultCSVConfig()
	config.Dialect = DialectTSV
	files, err := WriteFiles(t.TempDir(), g, testConfig(), config, "")
	if err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}
	if files.Actors != "" {
		t.Errorf("expected no actor table, got %q", files.Actors)
	}
	if filepath.Ext(files.Moves) != ".tsv" {
		t.Errorf("expected .tsv extension, got %q", files.Moves)
	}
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"demo":          "demo",
		"episode 1":     "episode_1",
		"../etc/passwd": "_etc_passwd",
		"":              "graph",
		"..":            "graph",
	}
	for in, want := range tests {
		if got := safeName(in); got != want {
			t.Errorf("safeName(%q) = %q, want %q", in, got, want)
		}
	}
}
