package factor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

func TestOrthogonalize_ResidualsUncorrelatedWithControls(t *testing.T) {
	size := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	value := []float64{0.5, -1, 2, 0, 1.5, -0.5, 3, 1}
	// target = 2*size - value + noise
	noise := []float64{0.1, -0.2, 0.05, 0.3, -0.1, 0.2, -0.3, 0.15}
	target := make([]float64, len(size))
	for i := range target {
		target[i] = 2*size[i] - value[i] + noise[i]
	}

	resid, err := Orthogonalize(target, size, value)

	require.NoError(t, err)
	assert.InDelta(t, 0, floats.Sum(resid), 1e-9, "intercept absorbs the mean")
	assert.InDelta(t, 0, stat.Correlation(resid, size, nil), 1e-9)
	assert.InDelta(t, 0, stat.Correlation(resid, value, nil), 1e-9)
}

func TestOrthogonalize_ExactFitLeavesZeroResiduals(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{3, 5, 7, 9} // 1 + 2x

	resid, err := Orthogonalize(y, x)

	require.NoError(t, err)
	for _, r := range resid {
		assert.InDelta(t, 0, r, 1e-9)
	}
}

func TestOrthogonalize_NaNRows(t *testing.T) {
	x := []float64{1, 2, math.NaN(), 4, 5}
	y := []float64{2, 4.1, 6, 7.9, 10.2}

	resid, err := Orthogonalize(y, x)

	require.NoError(t, err)
	assert.True(t, math.IsNaN(resid[2]))
	assert.False(t, math.IsNaN(resid[0]))
}

func TestOrthogonalize_Errors(t *testing.T) {
	_, err := Orthogonalize([]float64{1, 2, 3}, []float64{1, 2})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Orthogonalize([]float64{1, 2}, []float64{1, 2})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestOrthogonalizeFrame(t *testing.T) {
	frame := Frame{
		Assets: []string{"a", "b", "c", "d", "e", "f"},
		Factors: []Factor{
			{Name: "momentum", Values: []float64{0.3, 0.1, 0.4, 0.2, 0.6, 0.5}},
			{Name: "size", Values: []float64{10, 20, 30, 40, 50, 60}},
			{Name: "value", Values: []float64{1.2, 0.8, 1.5, 0.9, 1.1, 1.7}},
		},
	}

	out, err := OrthogonalizeFrame(frame, []string{"size", "value", "momentum"})

	require.NoError(t, err)
	assert.Equal(t, []string{"size", "value", "momentum"}, out.Names())
	assert.Equal(t, frame.Factors[1].Values, out.Factors[0].Values, "first factor unchanged")

	size, value, mom := out.Factors[0].Values, out.Factors[1].Values, out.Factors[2].Values
	assert.InDelta(t, 0, stat.Correlation(value, size, nil), 1e-9)
	assert.InDelta(t, 0, stat.Correlation(mom, size, nil), 1e-9)
	assert.InDelta(t, 0, stat.Correlation(mom, value, nil), 1e-9)

	_, err = OrthogonalizeFrame(frame, []string{"size", "quality"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
