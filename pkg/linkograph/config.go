package linkograph

import (
	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

// Defaults for Config.
const (
	DefaultMinLinkStrength   = 0.35
	DefaultCopyThreshold     = 0.99
	DefaultCriticalMoveCount = 3
)

// Config carries the thresholds every pipeline stage reads.
type Config struct {
	// MinLinkStrength is the lowest similarity that still counts as a link.
	MinLinkStrength float64 `json:"minLinkStrength" yaml:"min_link_strength"`

	// CopyThreshold marks a pair as a near-verbatim copy. Copies are counted
	// and left out of the actor-pair densities.
	CopyThreshold float64 `json:"copyThreshold" yaml:"copy_threshold"`

	// CriticalMoveCount is how many moves per direction are flagged critical.
	CriticalMoveCount int `json:"criticalMoveCount" yaml:"critical_move_count"`

	// Dimension is the expected embedding length. 0 infers it from the first move.
	Dimension int `json:"dimension" yaml:"dimension"`

	// StrictZeroVectors fails analysis on a zero-magnitude embedding instead
	// of treating its similarities as 0.
	StrictZeroVectors bool `json:"strictZeroVectors" yaml:"strict_zero_vectors"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MinLinkStrength:   DefaultMinLinkStrength,
		CopyThreshold:     DefaultCopyThreshold,
		CriticalMoveCount: DefaultCriticalMoveCount,
	}
}

// Validate checks the thresholds are usable.
func (c Config) Validate() error {
	if c.MinLinkStrength < 0 || c.MinLinkStrength >= 1 {
		return lerrors.ConfigErrorf(lerrors.ErrConfigInvalid,
			"min link strength %g must be in [0, 1)", c.MinLinkStrength).
			WithContextf("min_link_strength", c.MinLinkStrength).
			WithSuggestion("The usual value is 0.35")
	}
	if c.CopyThreshold <= c.MinLinkStrength || c.CopyThreshold > 1 {
		return lerrors.ConfigErrorf(lerrors.ErrConfigInvalid,
			"copy threshold %g must be in (%g, 1]", c.CopyThreshold, c.MinLinkStrength).
			WithContextf("copy_threshold", c.CopyThreshold)
	}
	if c.CriticalMoveCount < 0 {
		return lerrors.ConfigErrorf(lerrors.ErrConfigInvalid,
			"critical move count %d must not be negative", c.CriticalMoveCount)
	}
	if c.Dimension < 0 {
		return lerrors.ConfigErrorf(lerrors.ErrConfigInvalid,
			"dimension %d must not be negative", c.Dimension).
			WithSuggestion("Use 0 to take the dimension from the first embedding")
	}
	return nil
}
