package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "github.com/r3d91ll/fuzzylink/pkg/errors"
)

func TestDot(t *testing.T) {
	got, err := Dot([]float64{1, 2, 3}, []float64{4, -5, 6})
	require.NoError(t, err)
	assert.Equal(t, 12.0, got)

	_, err = Dot([]float64{1, 2}, []float64{1, 2, 3})
	assert.True(t, lerrors.IsCode(err, lerrors.ErrVectorDimensionMismatch))

	_, err = Dot(nil, nil)
	assert.True(t, lerrors.IsCode(err, lerrors.ErrVectorEmpty))
}

func TestMagnitude(t *testing.T) {
	assert.Equal(t, 5.0, Magnitude([]float64{3, 4}))
	assert.Equal(t, 0.0, Magnitude(nil))
	assert.Equal(t, 0.0, Magnitude([]float64{0, 0, 0}))
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{0.2, 0.4, 0.9}, []float64{0.2, 0.4, 0.9}, 1},
		{"scaled copy", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"orthogonal", []float64{1, 0, 0}, []float64{0, 1, 0}, 0},
		{"opposite", []float64{1, 1}, []float64{-1, -1}, -1},
		{"45 degrees", []float64{1, 0}, []float64{1, 1}, 1 / math.Sqrt2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.LessOrEqual(t, got, 1.0)
			assert.GreaterOrEqual(t, got, -1.0)
		})
	}
}

func TestCosineSimilarity_DoesNotAssumeNormalization(t *testing.T) {
	// Same direction, very different lengths.
	got, err := CosineSimilarity([]float64{100, 0}, []float64{0.001, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestCosineSimilarity_Failures(t *testing.T) {
	_, err := CosineSimilarity([]float64{1, 2}, []float64{1})
	assert.True(t, lerrors.IsCode(err, lerrors.ErrVectorDimensionMismatch))

	_, err = CosineSimilarity([]float64{0, 0}, []float64{1, 1})
	assert.True(t, lerrors.IsCode(err, lerrors.ErrVectorZeroMagnitude))
	assert.True(t, lerrors.IsCategory(err, lerrors.CategoryNumeric))
}

func TestRescale(t *testing.T) {
	from := Interval{Min: 0.35, Max: 1}

	assert.InDelta(t, 0.0, Rescale(0.35, from, UnitInterval), 1e-12)
	assert.InDelta(t, 1.0, Rescale(1, from, UnitInterval), 1e-12)
	assert.InDelta(t, 0.5, Rescale(0.675, from, UnitInterval), 1e-12)

	// No clamping: values outside the source interval extrapolate.
	assert.Less(t, Rescale(0, from, UnitInterval), 0.0)

	// Inverted target, the way a presentation layer maps strength to grey level.
	assert.InDelta(t, 255.0, Rescale(0.35, from, Interval{Min: 255, Max: 0}), 1e-9)

	assert.Equal(t, 7.0, Rescale(3, Interval{Min: 1, Max: 1}, Interval{Min: 7, Max: 9}))
}

func TestNormalize(t *testing.T) {
	v := []float64{3, 4}
	n, err := Normalize(v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, Magnitude(n), 1e-12)
	assert.Equal(t, []float64{3, 4}, v, "input must not be modified")

	_, err = Normalize([]float64{0, 0})
	assert.True(t, lerrors.IsCode(err, lerrors.ErrVectorZeroMagnitude))
}

func TestToFloat64(t *testing.T) {
	assert.Equal(t, []float64{0.5, -2}, ToFloat64([]float32{0.5, -2}))
	assert.Empty(t, ToFloat64(nil))
}
