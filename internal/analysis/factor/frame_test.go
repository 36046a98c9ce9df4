package factor

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

func TestReadFrame(t *testing.T) {
	in := "asset, value, momentum\nAAPL,1.5,0.2\nMSFT, 2.0 ,NA\nGOOG,,0.1\n"

	frame, err := ReadFrame(strings.NewReader(in))

	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, frame.Assets)
	assert.Equal(t, []string{"value", "momentum"}, frame.Names())

	value, ok := frame.Factor("value")
	require.True(t, ok)
	assert.Equal(t, 1.5, value.Values[0])
	assert.Equal(t, 2.0, value.Values[1])
	assert.True(t, math.IsNaN(value.Values[2]))

	mom, _ := frame.Factor("momentum")
	assert.True(t, math.IsNaN(mom.Values[1]))
}

func TestReadFrame_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", domain.ErrInvalidInput},
		{"no factor columns", "asset\nAAPL\n", domain.ErrInvalidInput},
		{"bad number", "asset,x\nAAPL,abc\n", domain.ErrParse},
		{"ragged row", "asset,x\nAAPL,1,2\n", domain.ErrParse},
		{"duplicate factor", "asset,x,x\nAAPL,1,2\n", domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFrame(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWriteFrame_RoundTrip(t *testing.T) {
	frame := Frame{
		Assets: []string{"A", "B"},
		Factors: []Factor{
			{Name: "x", Values: []float64{1.25, math.NaN()}},
			{Name: "y", Values: []float64{-3, 4}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, frame))
	assert.Equal(t, "asset,x,y\nA,1.25,-3\nB,,4\n", buf.String())

	back, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, frame.Assets, back.Assets)
	assert.True(t, math.IsNaN(back.Factors[0].Values[1]))
}

func TestFrame_Apply(t *testing.T) {
	frame := Frame{Assets: []string{"A", "B"}, Factors: []Factor{{Name: "x", Values: []float64{1, 3}}}}

	out := frame.Apply(MinMax)

	assert.Equal(t, []float64{0, 1}, out.Factors[0].Values)
	assert.Equal(t, []float64{1, 3}, frame.Factors[0].Values, "input untouched")
}

func TestFactor_JSONMissingValues(t *testing.T) {
	f := Factor{Name: "x", Values: []float64{1, math.NaN()}}

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","values":[1,null]}`, string(data))

	var back Factor
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 1.0, back.Values[0])
	assert.True(t, math.IsNaN(back.Values[1]))
}
