package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitRecoversLinearRelationship(t *testing.T) {
	// price = 1000*bedrooms + 10*land + 50000
	rows := [][]float64{
		{1, 100},
		{2, 200},
		{3, 150},
		{4, 400},
		{5, 250},
		{2, 300},
	}
	prices := make([]float64, len(rows))
	for i, r := range rows {
		prices[i] = 1000*r[0] + 10*r[1] + 50000
	}

	m, err := Fit(rows, prices)
	require.NoError(t, err)
	assert.Equal(t, ModelVersion, m.Version)
	assert.Equal(t, len(rows), m.Samples)
	assert.InDelta(t, 1.0, m.RSquared, 1e-6)

	pred, err := m.Predict([]float64{3, 350})
	require.NoError(t, err)
	assert.InDelta(t, 1000*3+10*350+50000, pred, 1.0)
}

func TestFitConstantColumn(t *testing.T) {
	// second feature never varies; the fit must not divide by zero
	rows := [][]float64{
		{1, 7},
		{2, 7},
		{3, 7},
	}
	prices := []float64{100, 200, 300}
	m, err := Fit(rows, prices)
	require.NoError(t, err)
	pred, err := m.Predict([]float64{2, 7})
	require.NoError(t, err)
	assert.InDelta(t, 200, pred, 1.0)
}

func TestFitInputValidation(t *testing.T) {
	_, err := Fit(nil, nil)
	assert.Error(t, err)

	_, err = Fit([][]float64{{1}}, []float64{1, 2})
	assert.Error(t, err)

	_, err = Fit([][]float64{{1, 2}, {1}}, []float64{1, 2})
	assert.Error(t, err)
}

func TestPredictLengthMismatch(t *testing.T) {
	m, err := Fit([][]float64{{1, 2}, {3, 4}, {5, 6}}, []float64{1, 2, 3})
	require.NoError(t, err)
	_, err = m.Predict([]float64{1})
	assert.Error(t, err)
}

func TestFallbackPrice(t *testing.T) {
	assert.Equal(t, 0.0, FallbackPrice(nil))
	// mean of the vector times 1000
	assert.InDelta(t, 2000.0, FallbackPrice([]float64{1, 2, 3}), 1e-9)
}

func TestSolve(t *testing.T) {
	// 2x + y = 5; x + 3y = 10
	x, err := solve([][]float64{{2, 1}, {1, 3}}, []float64{5, 10})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, x[0], 1e-9)
	assert.InDelta(t, 3.0, x[1], 1e-9)

	_, err = solve([][]float64{{1, 1}, {1, 1}}, []float64{1, 2})
	assert.Error(t, err)
}
