package export

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/r3d91ll/fuzzylink/pkg/linkograph"
)

// HashAlgorithm identifies the hashing algorithm used for analysis hashes.
const HashAlgorithm = "SHA-256"

// AnalysisHash is the reproducibility signature of one analysis: the config,
// the link scores and every derived value. Two runs that agree bit for bit
// produce the same hash.
type AnalysisHash struct {
	// Hash is the hex-encoded SHA-256 hash.
	Hash string `json:"hash"`

	// Algorithm identifies the hashing algorithm used.
	Algorithm string `json:"algorithm"`

	// ComputedAt is when the hash was computed.
	ComputedAt time.Time `json:"computed_at"`

	// ToolVersion is the version of the tool that produced the analysis.
	ToolVersion string `json:"tool_version,omitempty"`

	// Parameters are the extra hashed parameters.
	Parameters map[string]string `json:"parameters,omitempty"`
}

// HashBuilder constructs analysis hashes.
type HashBuilder struct {
	toolVersion string
	config      linkograph.Config
	graph       *linkograph.Graph
	params      map[string]string
}

// NewHashBuilder creates a new HashBuilder.
func NewHashBuilder() *HashBuilder {
	return &HashBuilder{
		config: linkograph.DefaultConfig(),
		params: make(map[string]string),
	}
}

// WithToolVersion sets the tool version. It is recorded but not hashed, so
// releases that compute identical numbers agree.
func (hb *HashBuilder) WithToolVersion(version string) *HashBuilder {
	hb.toolVersion = version
	return hb
}

// WithConfig sets the analysis parameters.
func (hb *HashBuilder) WithConfig(cfg linkograph.Config) *HashBuilder {
	hb.config = cfg
	return hb
}

// WithGraph sets the analyzed graph.
func (hb *HashBuilder) WithGraph(g *linkograph.Graph) *HashBuilder {
	hb.graph = g
	return hb
}

// WithParameter adds an extra parameter, such as the embedding model.
// Parameters are sorted by key during hashing.
func (hb *HashBuilder) WithParameter(key, value string) *HashBuilder {
	hb.params[key] = value
	return hb
}

// Build computes the hash.
func (hb *HashBuilder) Build() *AnalysisHash {
	return &AnalysisHash{
		Hash:        computeHash(hb.config, hb.graph, hb.params),
		Algorithm:   HashAlgorithm,
		ComputedAt:  time.Now().UTC(),
		ToolVersion: hb.toolVersion,
		Parameters:  hb.params,
	}
}

// HashGraph is shorthand for NewHashBuilder().WithConfig(cfg).WithGraph(g).Build().
func HashGraph(g *linkograph.Graph, cfg linkograph.Config) *AnalysisHash {
	return NewHashBuilder().WithConfig(cfg).WithGraph(g).Build()
}

// computeHash hashes a canonical rendering. Floats are written in their
// shortest exact form so any bit difference changes the hash.
func computeHash(cfg linkograph.Config, g *linkograph.Graph, params map[string]string) string {
	var sb strings.Builder

	sb.WriteString("min:")
	sb.WriteString(exact(cfg.MinLinkStrength))
	sb.WriteString("|copy:")
	sb.WriteString(exact(cfg.CopyThreshold))
	sb.WriteString("|critical:")
	sb.WriteString(strconv.Itoa(cfg.CriticalMoveCount))
	sb.WriteString("|")

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString("params:")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(params[k])
		}
		sb.WriteString("|")
	}

	if g != nil {
		sb.WriteString("moves:")
		sb.WriteString(strconv.Itoa(len(g.Moves)))
		sb.WriteString("|links:")
		for i, v := range g.Links.All() {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(exact(v))
		}
		sb.WriteString("|")

		for i, m := range g.Moves {
			fmt.Fprintf(&sb, "m%d:%d,%s,%s,%s,%s,%t,%t|", i, m.Actor,
				exact(m.BacklinkWeight), exact(m.ForelinkWeight),
				exact(m.BacklinkEntropy), exact(m.ForelinkEntropy),
				m.BacklinkCriticalMove, m.ForelinkCriticalMove)
		}

		fmt.Fprintf(&sb, "ldi:%s|maxb:%s|maxf:%s|be:%s|fe:%s|he:%s|e:%s|copies:%d|",
			exact(g.LinkDensityIndex), exact(g.MaxBacklinkWeight), exact(g.MaxForelinkWeight),
			exact(g.BacklinkEntropy), exact(g.ForelinkEntropy), exact(g.HorizonlinkEntropy),
			exact(g.Entropy), g.CopyCount)

		pairs := make([]string, 0, len(g.LinkDensitiesByActorPair))
		for k := range g.LinkDensitiesByActorPair {
			pairs = append(pairs, k)
		}
		sort.Strings(pairs)
		for _, k := range pairs {
			fmt.Fprintf(&sb, "pair %s:%s,%d|", k, exact(g.LinkDensitiesByActorPair[k]), g.ActorPairLinkCounts[k])
		}
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func exact(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ShortHash returns the first 8 characters of the full hash.
// This is suitable for display in reports and file names.
func (ah *AnalysisHash) ShortHash() string {
	if len(ah.Hash) >= 8 {
		return ah.Hash[:8]
	}
	return ah.Hash
}

// Verify recomputes the hash of g under cfg and compares it to the stored one.
func (ah *AnalysisHash) Verify(g *linkograph.Graph, cfg linkograph.Config) bool {
	if ah == nil || g == nil {
		return false
	}
	return computeHash(cfg, g, ah.Parameters) == ah.Hash
}

// ToJSON returns the hash as an indented JSON string.
func (ah *AnalysisHash) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ah, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis hash: %w", err)
	}
	return string(data), nil
}
