package ml

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Prediction is the document returned to API clients and stored in the
// prediction cache.
type Prediction struct {
	Price        float64 `json:"price"`
	Confidence   float64 `json:"confidence"`
	ModelVersion string  `json:"model_version"`
	PredictedAt  string  `json:"predicted_at"`
}

// TrainResult reports a training run. When Trained is false, Message says
// why; that is a client problem, not a server error.
type TrainResult struct {
	Trained   bool    `json:"trained"`
	Message   string  `json:"message,omitempty"`
	Samples   int     `json:"samples,omitempty"`
	RSquared  float64 `json:"r_squared,omitempty"`
	ModelKey  string  `json:"model_key,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
}

const (
	confidenceTrained  = 0.75
	confidenceFallback = 0.3
)

// Engine serves predictions from the current model and retrains it on
// demand. Safe for concurrent use.
type Engine struct {
	mu    sync.RWMutex
	model *Model

	store  Store
	cache  *PredictionCache
	logger *slog.Logger
}

func NewEngine(l *slog.Logger, store Store, cache *PredictionCache) *Engine {
	return &Engine{store: store, cache: cache, logger: l}
}

// LoadModel pulls the persisted artifact into memory. A missing artifact is
// not an error; the engine just serves fallback predictions.
func (e *Engine) LoadModel(ctx context.Context) error {
	m, err := e.store.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNoModel) {
			e.logger.Info("no model artifact found, serving fallback predictions")
			return nil
		}
		return err
	}
	e.mu.Lock()
	e.model = m
	e.mu.Unlock()
	e.logger.Info("loaded model artifact",
		"samples", m.Samples, "trained_at", m.TrainedAt, "r_squared", m.RSquared)
	return nil
}

// ModelAvailable reports whether a trained model is loaded.
func (e *Engine) ModelAvailable() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model != nil
}

// Predict returns a price for the supplied features, from cache when the
// same feature vector was predicted recently. Without a trained model (or if
// the model errors) it falls back to a cheap heuristic with low confidence.
func (e *Engine) Predict(ctx context.Context, f Features) Prediction {
	v := f.Vector()
	if p, ok := e.cache.Get(ctx, v); ok {
		return *p
	}

	e.mu.RLock()
	m := e.model
	e.mu.RUnlock()

	var price, confidence float64
	if m != nil {
		p, err := m.Predict(v)
		if err != nil {
			e.logger.Error("model prediction failed, using fallback", "error", err.Error())
			price, confidence = FallbackPrice(v), confidenceFallback
		} else {
			price, confidence = p, confidenceTrained
		}
	} else {
		price, confidence = FallbackPrice(v), confidenceFallback
	}

	pred := Prediction{
		Price:        price,
		Confidence:   confidence,
		ModelVersion: ModelVersion,
		PredictedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	e.cache.Set(ctx, v, pred)
	return pred
}

// Train fits a new model on the supplied samples, persists the artifact,
// swaps it in, and invalidates the prediction cache. Bad input yields a
// TrainResult with Trained=false rather than an error.
func (e *Engine) Train(ctx context.Context, feats []Features, prices []float64) (TrainResult, error) {
	if len(feats) == 0 || len(prices) == 0 {
		return TrainResult{Trained: false, Message: "no data provided"}, nil
	}
	if len(feats) != len(prices) {
		return TrainResult{Trained: false, Message: "mismatch: properties and prices length differ"}, nil
	}
	rows := make([][]float64, len(feats))
	for i, f := range feats {
		rows[i] = f.Vector()
	}
	m, err := Fit(rows, prices)
	if err != nil {
		return TrainResult{}, err
	}
	if err := e.store.Put(ctx, m); err != nil {
		return TrainResult{}, err
	}
	e.mu.Lock()
	e.model = m
	e.mu.Unlock()
	e.cache.Invalidate(ctx)
	e.logger.Info("trained model", "samples", m.Samples, "r_squared", m.RSquared)
	return TrainResult{
		Trained:   true,
		Samples:   m.Samples,
		RSquared:  m.RSquared,
		ModelKey:  e.store.Key(),
		Timestamp: m.TrainedAt.Format(time.RFC3339),
	}, nil
}
