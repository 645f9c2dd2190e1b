// Package export writes analyzed graphs as CSV tables and JSON reports for
// R, pandas and the presentation layer.
package export

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

// CSVDialect specifies the CSV format variant.
type CSVDialect string

const (
	// DialectStandard uses RFC 4180 compliant CSV (comma-separated, quoted strings).
	DialectStandard CSVDialect = "standard"

	// DialectExcel writes a UTF-8 byte order mark and CRLF line endings.
	DialectExcel CSVDialect = "excel"

	// DialectTSV uses tab-separated values instead of comma.
	DialectTSV CSVDialect = "tsv"
)

const utf8BOM = "\uFEFF"

// CSVConfig specifies options for CSV export.
type CSVConfig struct {
	// Dialect specifies the CSV format variant.
	// Default: DialectStandard
	Dialect CSVDialect

	// IncludeHeader writes column headers as the first row.
	// Default: true
	IncludeHeader bool

	// TimestampFormat is used for move timestamps.
	// Default: time.RFC3339
	TimestampFormat string

	// Precision is the number of decimal places for floating-point values.
	// -1 writes the shortest exact representation.
	// Default: 6
	Precision int

	// NAString is the representation for missing/NA values.
	// Default: "NA" (compatible with R and Python pandas)
	NAString string

	// IncludeText includes the move text column in move tables.
	// Default: true
	IncludeText bool
}

// DefaultCSVConfig returns a CSVConfig with sensible defaults.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Dialect:         DialectStandard,
		IncludeHeader:   true,
		TimestampFormat: time.RFC3339,
		Precision:       6,
		NAString:        "NA",
		IncludeText:     true,
	}
}

// CSVWriter writes linkograph tables. One writer produces one table.
type CSVWriter struct {
	config      *CSVConfig
	out         io.Writer
	writer      *csv.Writer
	started     bool
	rowsWritten int
}

// NewCSVWriter creates a new CSVWriter that writes to the given io.Writer.
// If config is nil, DefaultCSVConfig() is used.
func NewCSVWriter(w io.Writer, config *CSVConfig) *CSVWriter {
	if config == nil {
		config = DefaultCSVConfig()
	}

	csvWriter := csv.NewWriter(w)
	switch config.Dialect {
	case DialectTSV:
		csvWriter.Comma = '\t'
	case DialectExcel:
		csvWriter.UseCRLF = true
	}

	return &CSVWriter{
		config: config,
		out:    w,
		writer: csvWriter,
	}
}

func (cw *CSVWriter) start(headers []string) error {
	if cw.started {
		return nil
	}
	cw.started = true
	if cw.config.Dialect == DialectExcel {
		if _, err := io.WriteString(cw.out, utf8BOM); err != nil {
			return writeError(err, "failed to write byte order mark")
		}
	}
	if cw.config.IncludeHeader {
		if err := cw.writer.Write(headers); err != nil {
			return writeError(err, "failed to write CSV header")
		}
	}
	return nil
}

func (cw *CSVWriter) row(fields []string) error {
	if err := cw.writer.Write(fields); err != nil {
		return writeError(err, "failed to write CSV row")
	}
	cw.rowsWritten++
	return nil
}

// MoveHeaders returns the column headers of WriteMoves.
func (cw *CSVWriter) MoveHeaders() []string {
	headers := []string{"graph", "index", "actor"}
	if cw.config.IncludeText {
		headers = append(headers, "text")
	}
	return append(headers,
		"timestamp",
		"backlink_weight",
		"forelink_weight",
		"backlink_entropy",
		"forelink_entropy",
		"backlink_critical",
		"forelink_critical",
	)
}

// WriteMoves writes one row per move of g.
func (cw *CSVWriter) WriteMoves(g *linkograph.Graph) error {
	if err := cw.start(cw.MoveHeaders()); err != nil {
		return err
	}
	for i, m := range g.Moves {
		row := []string{cw.formatString(graphLabel(g)), strconv.Itoa(i), strconv.Itoa(m.Actor)}
		if cw.config.IncludeText {
			row = append(row, cw.formatString(m.Text))
		}
		ts := cw.config.NAString
		if m.Timestamp != nil {
			ts = m.Timestamp.UTC().Format(cw.config.TimestampFormat)
		}
		row = append(row,
			ts,
			cw.formatFloat(m.BacklinkWeight),
			cw.formatFloat(m.ForelinkWeight),
			cw.formatFloat(m.BacklinkEntropy),
			cw.formatFloat(m.ForelinkEntropy),
			formatBool(m.BacklinkCriticalMove),
			formatBool(m.ForelinkCriticalMove),
		)
		if err := cw.row(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteLinks writes one row per stored pair: the raw score and the weight
// it contributes at minStrength (0 below the threshold).
func (cw *CSVWriter) WriteLinks(g *linkograph.Graph, minStrength float64) error {
	if err := cw.start([]string{"graph", "i", "j", "horizon", "score", "weight"}); err != nil {
		return err
	}
	n := g.Links.Size()
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			score, err := g.Links.At(i, j)
			if err != nil {
				return err
			}
			weight := linkograph.TotalLinkWeight([]float64{score}, minStrength)
			if err := cw.row([]string{
				cw.formatString(graphLabel(g)),
				strconv.Itoa(i),
				strconv.Itoa(j),
				strconv.Itoa(i - j),
				cw.formatFloat(score),
				cw.formatFloat(weight),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteActorDensities writes one row per actor pair, sorted by pair.
func (cw *CSVWriter) WriteActorDensities(g *linkograph.Graph) error {
	if err := cw.start([]string{"graph", "pair", "later_actor", "earlier_actor", "density", "links"}); err != nil {
		return err
	}
	keys := make([]string, 0, len(g.LinkDensitiesByActorPair))
	for k := range g.LinkDensitiesByActorPair {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		later, earlier := cw.config.NAString, cw.config.NAString
		if pair, err := linkograph.ParseActorPair(k); err == nil {
			later, earlier = strconv.Itoa(pair.Later), strconv.Itoa(pair.Earlier)
		}
		if err := cw.row([]string{
			cw.formatString(graphLabel(g)),
			k,
			later,
			earlier,
			cw.formatFloat(g.LinkDensitiesByActorPair[k]),
			strconv.Itoa(g.ActorPairLinkCounts[k]),
		}); err != nil {
			return err
		}
	}
	return nil
}

// WriteGraphs writes one row of graph-level statistics per graph.
func (cw *CSVWriter) WriteGraphs(graphs []*linkograph.Graph) error {
	headers := []string{
		"graph_id",
		"name",
		"moves",
		"link_density_index",
		"max_backlink_weight",
		"max_forelink_weight",
		"backlink_entropy",
		"forelink_entropy",
		"horizonlink_entropy",
		"entropy",
		"copy_count",
	}
	if err := cw.start(headers); err != nil {
		return err
	}
	for _, g := range graphs {
		if err := cw.row([]string{
			cw.formatString(g.ID),
			cw.formatString(g.Name),
			strconv.Itoa(len(g.Moves)),
			cw.formatFloat(g.LinkDensityIndex),
			cw.formatFloat(g.MaxBacklinkWeight),
			cw.formatFloat(g.MaxForelinkWeight),
			cw.formatFloat(g.BacklinkEntropy),
			cw.formatFloat(g.ForelinkEntropy),
			cw.formatFloat(g.HorizonlinkEntropy),
			cw.formatFloat(g.Entropy),
			strconv.Itoa(g.CopyCount),
		}); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return writeError(err, "failed to flush CSV writer")
	}
	return nil
}

// RowsWritten returns the number of data rows written (excluding header).
func (cw *CSVWriter) RowsWritten() int {
	return cw.rowsWritten
}

func graphLabel(g *linkograph.Graph) string {
	if g.Name != "" {
		return g.Name
	}
	return g.ID
}

// formatString returns the string value or NA if empty.
func (cw *CSVWriter) formatString(s string) string {
	if s == "" {
		return cw.config.NAString
	}
	return s
}

// formatFloat formats with the configured precision; NaN and Inf are NA.
func (cw *CSVWriter) formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return cw.config.NAString
	}
	return strconv.FormatFloat(f, 'f', cw.config.Precision, 64)
}

// formatBool formats a boolean as "TRUE" or "FALSE" for R/Python compatibility.
func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func writeError(err error, msg string) error {
	return lerrors.WrapIO(err, lerrors.ErrExportFailed, msg)
}
