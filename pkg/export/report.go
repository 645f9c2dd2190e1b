package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

// Report is the JSON document handed to the presentation layer: the
// annotated graph with its summary, the parameters it was computed under and
// its reproducibility hash.
type Report struct {
	Graph       *linkograph.Graph  `json:"graph"`
	Summary     linkograph.Summary `json:"summary"`
	Config      linkograph.Config  `json:"config"`
	Hash        *AnalysisHash      `json:"hash"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// NewReport builds the report of an analyzed graph.
func NewReport(g *linkograph.Graph, cfg linkograph.Config, toolVersion string) *Report {
	return &Report{
		Graph:       g,
		Summary:     g.Summary(cfg),
		Config:      cfg,
		Hash:        NewHashBuilder().WithToolVersion(toolVersion).WithConfig(cfg).WithGraph(g).Build(),
		GeneratedAt: time.Now().UTC(),
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return writeError(err, "failed to write JSON")
	}
	return nil
}

// Files lists what WriteFiles produced.
type Files struct {
	Dir    string
	Report string
	Moves  string
	Links  string
	Actors string
}

// Paths returns the written file paths in a stable order.
func (f Files) Paths() []string {
	paths := []string{f.Report, f.Moves, f.Links}
	if f.Actors != "" {
		paths = append(paths, f.Actors)
	}
	return paths
}

// WriteFiles writes report.json, moves.csv, links.csv and, when the graph
// has actor statistics, actors.csv into dir/<graph name>.
func WriteFiles(dir string, g *linkograph.Graph, cfg linkograph.Config, csvCfg *CSVConfig, toolVersion string) (Files, error) {
	if csvCfg == nil {
		csvCfg = DefaultCSVConfig()
	}
	ext := ".csv"
	if csvCfg.Dialect == DialectTSV {
		ext = ".tsv"
	}

	files := Files{Dir: filepath.Join(dir, safeName(graphLabel(g)))}
	if err := os.MkdirAll(files.Dir, 0o755); err != nil {
		return Files{}, lerrors.WrapIO(err, lerrors.ErrExportFailed, "failed to create export directory").
			WithContext("path", files.Dir)
	}

	files.Report = filepath.Join(files.Dir, "report.json")
	if err := writeFile(files.Report, func(w io.Writer) error {
		return WriteJSON(w, NewReport(g, cfg, toolVersion))
	}); err != nil {
		return Files{}, err
	}

	files.Moves = filepath.Join(files.Dir, "moves"+ext)
	if err := writeFile(files.Moves, func(w io.Writer) error {
		cw := NewCSVWriter(w, csvCfg)
		if err := cw.WriteMoves(g); err != nil {
			return err
		}
		return cw.Flush()
	}); err != nil {
		return Files{}, err
	}

	files.Links = filepath.Join(files.Dir, "links"+ext)
	if err := writeFile(files.Links, func(w io.Writer) error {
		cw := NewCSVWriter(w, csvCfg)
		if err := cw.WriteLinks(g, cfg.MinLinkStrength); err != nil {
			return err
		}
		return cw.Flush()
	}); err != nil {
		return Files{}, err
	}

	if len(g.LinkDensitiesByActorPair) > 0 {
		files.Actors = filepath.Join(files.Dir, "actors"+ext)
		if err := writeFile(files.Actors, func(w io.Writer) error {
			cw := NewCSVWriter(w, csvCfg)
			if err := cw.WriteActorDensities(g); err != nil {
				return err
			}
			return cw.Flush()
		}); err != nil {
			return Files{}, err
		}
	}

	return files, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return lerrors.WrapIO(err, lerrors.ErrExportFailed, "failed to create export file").WithContext("path", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return lerrors.WrapIO(err, lerrors.ErrExportFailed, "failed to close export file").WithContext("path", path)
	}
	return nil
}

// safeName turns a graph label into a directory name.
func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, ".")
	if s == "" {
		return "graph"
	}
	return s
}
