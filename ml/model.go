package ml

import (
	"fmt"
	"math"
	"time"
)

// ModelVersion tags every prediction and persisted artifact.
const ModelVersion = "v1"

// Model is a fitted linear regression over standardized features. The struct
// doubles as the persisted artifact format (JSON).
type Model struct {
	Version   string    `json:"version"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
	Means     []float64 `json:"means"`
	Stds      []float64 `json:"stds"`
	Samples   int       `json:"samples"`
	RSquared  float64   `json:"r_squared"`
	TrainedAt time.Time `json:"trained_at"`
}

// Fit trains an ordinary least squares model on the supplied feature rows
// and prices. Features are standardized per-column before solving the normal
// equations; a small ridge term keeps degenerate columns solvable.
func Fit(rows [][]float64, prices []float64) (*Model, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(prices) != n {
		return nil, fmt.Errorf("have %d feature rows but %d prices", n, len(prices))
	}
	k := len(rows[0])
	for i, r := range rows {
		if len(r) != k {
			return nil, fmt.Errorf("feature row %d has length %d, want %d", i, len(r), k)
		}
	}

	means := make([]float64, k)
	stds := make([]float64, k)
	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			means[j] += rows[i][j]
		}
		means[j] /= float64(n)
		for i := 0; i < n; i++ {
			d := rows[i][j] - means[j]
			stds[j] += d * d
		}
		stds[j] = math.Sqrt(stds[j] / float64(n))
		if stds[j] == 0 {
			// constant column; standardizing would divide by zero
			stds[j] = 1
		}
	}

	// design matrix with a leading intercept column
	scaled := make([][]float64, n)
	for i := 0; i < n; i++ {
		scaled[i] = make([]float64, k+1)
		scaled[i][0] = 1
		for j := 0; j < k; j++ {
			scaled[i][j+1] = (rows[i][j] - means[j]) / stds[j]
		}
	}

	// normal equations: (X'X + eps*I) w = X'y
	dim := k + 1
	xtx := make([][]float64, dim)
	xty := make([]float64, dim)
	for a := 0; a < dim; a++ {
		xtx[a] = make([]float64, dim)
		for b := 0; b < dim; b++ {
			var s float64
			for i := 0; i < n; i++ {
				s += scaled[i][a] * scaled[i][b]
			}
			xtx[a][b] = s
		}
		var s float64
		for i := 0; i < n; i++ {
			s += scaled[i][a] * prices[i]
		}
		xty[a] = s
	}
	const eps = 1e-8
	for a := 0; a < dim; a++ {
		xtx[a][a] += eps
	}
	w, err := solve(xtx, xty)
	if err != nil {
		return nil, fmt.Errorf("solving normal equations: %w", err)
	}

	m := &Model{
		Version:   ModelVersion,
		Weights:   w[1:],
		Intercept: w[0],
		Means:     means,
		Stds:      stds,
		Samples:   n,
		TrainedAt: time.Now().UTC(),
	}

	// r² against the training set
	var meanY float64
	for _, y := range prices {
		meanY += y
	}
	meanY /= float64(n)
	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		pred, _ := m.Predict(rows[i])
		ssRes += (prices[i] - pred) * (prices[i] - pred)
		ssTot += (prices[i] - meanY) * (prices[i] - meanY)
	}
	if ssTot > 0 {
		m.RSquared = 1 - ssRes/ssTot
	} else {
		m.RSquared = 1
	}
	return m, nil
}

// Predict evaluates the model on a raw (unstandardized) feature vector.
func (m *Model) Predict(v []float64) (float64, error) {
	if len(v) != len(m.Weights) {
		return 0, fmt.Errorf("feature vector has length %d, model wants %d", len(v), len(m.Weights))
	}
	p := m.Intercept
	for j := range v {
		p += m.Weights[j] * (v[j] - m.Means[j]) / m.Stds[j]
	}
	return p, nil
}

// FallbackPrice is the heuristic used when no trained model is available.
func FallbackPrice(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v)) * 1000
}

// solve performs Gaussian elimination with partial pivoting on a copy of the
// inputs and returns x such that a*x = b.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	m := make([][]float64, n)
	for i := range a {
		m[i] = make([]float64, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i]
	}
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular matrix at column %d", col)
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := m[i][n]
		for j := i + 1; j < n; j++ {
			s -= m[i][j] * x[j]
		}
		x[i] = s / m[i][i]
	}
	return x, nil
}
