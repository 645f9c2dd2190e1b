// Package vecmath holds the vector helpers the similarity engine is built on:
// dot product, magnitude, cosine similarity and linear rescaling.
package vecmath

import (
	"math"

	"github.com/viterin/vek"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

// Interval is a closed numeric range used by Rescale.
type Interval struct {
	Min float64
	Max float64
}

// UnitInterval is [0, 1].
var UnitInterval = Interval{Min: 0, Max: 1}

// Width returns Max - Min.
func (iv Interval) Width() float64 {
	return iv.Max - iv.Min
}

// Dot returns the dot product of a and b.
func Dot(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, lerrors.InputErrorf(lerrors.ErrVectorDimensionMismatch,
			"vector lengths differ: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, lerrors.InputError(lerrors.ErrVectorEmpty, "dot product of empty vectors")
	}
	return vek.Dot(a, b), nil
}

// Magnitude returns the Euclidean norm of v. The empty vector has magnitude 0.
func Magnitude(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return math.Sqrt(vek.Dot(v, v))
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|).
//
// Mismatched lengths and empty vectors are input errors; a zero-magnitude
// operand is a numeric error (the ratio is undefined). The result is clamped
// to [-1, 1] so rounding never pushes an identical pair past 1.
func CosineSimilarity(a, b []float64) (float64, error) {
	dot, err := Dot(a, b)
	if err != nil {
		return 0, err
	}

	magA, magB := Magnitude(a), Magnitude(b)
	if magA == 0 || magB == 0 {
		return 0, lerrors.NumericError(lerrors.ErrVectorZeroMagnitude,
			"cosine similarity is undefined for a zero vector")
	}

	sim := dot / (magA * magB)
	switch {
	case math.IsNaN(sim):
		return 0, lerrors.NumericError(lerrors.ErrScoreOutOfRange,
			"cosine similarity is not a number; check vectors for NaN or Inf components")
	case sim > 1:
		return 1, nil
	case sim < -1:
		return -1, nil
	}
	return sim, nil
}

// Rescale maps value affinely from one interval onto another. Values outside
// from extrapolate; there is no clamping. A zero-width source interval maps
// everything to to.Min.
func Rescale(value float64, from, to Interval) float64 {
	w := from.Width()
	if w == 0 {
		return to.Min
	}
	return ((value-from.Min)/w)*to.Width() + to.Min
}

// Normalize returns v scaled to unit length.
func Normalize(v []float64) ([]float64, error) {
	mag := Magnitude(v)
	if mag == 0 {
		return nil, lerrors.NumericError(lerrors.ErrVectorZeroMagnitude, "cannot normalize a zero vector")
	}
	out := make([]float64, len(v))
	copy(out, v)
	vek.MulNumber_Inplace(out, 1/mag)
	return out, nil
}

// ToFloat64 widens a float32 vector, the format most embedding services return.
func ToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
