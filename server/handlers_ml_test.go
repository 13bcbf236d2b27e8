package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ausproperty/ausproperty/ml"
	"github.com/ausproperty/ausproperty/server/db"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *ml.Engine {
	return ml.NewEngine(testLogger(), &ml.MemoryStore{}, nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestHandlePredictFallback(t *testing.T) {
	w := postJSON(t, handlePredict(testLogger(), testEngine()), "/ml/predict", map[string]interface{}{
		"property": map[string]interface{}{"bedrooms": 3, "landSizeM2": 600},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var pred ml.Prediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pred))
	assert.Equal(t, "v1", pred.ModelVersion)
	assert.Equal(t, 0.3, pred.Confidence)
	assert.Greater(t, pred.Price, 0.0)
}

func TestHandlePredictBadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/ml/predict", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handlePredict(testLogger(), testEngine())(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTrain(t *testing.T) {
	engine := testEngine()
	props := []map[string]interface{}{}
	prices := []float64{}
	for i := 1; i <= 6; i++ {
		props = append(props, map[string]interface{}{
			"bedrooms":   i,
			"landSizeM2": float64(200 + 100*i),
		})
		prices = append(prices, float64(150000*i))
	}
	w := postJSON(t, handleTrain(testLogger(), engine), "/ml/train", map[string]interface{}{
		"properties": props,
		"prices":     prices,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res ml.TrainResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Trained)
	assert.Equal(t, 6, res.Samples)
	assert.True(t, engine.ModelAvailable())

	// model predictions now carry the trained confidence
	pred := engine.Predict(context.Background(), ml.Features{Bedrooms: 3, LandSizeM2: 500})
	assert.Equal(t, 0.75, pred.Confidence)
}

func TestHandleTrainEmptyPayload(t *testing.T) {
	w := postJSON(t, handleTrain(testLogger(), testEngine()), "/ml/train", map[string]interface{}{
		"properties": []interface{}{},
		"prices":     []interface{}{},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var res ml.TrainResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Trained)
	assert.Equal(t, "no data provided", res.Message)
}

// emptyRow satisfies pgx.Row for queries that match nothing.
type emptyRow struct{}

func (emptyRow) Scan(dest ...interface{}) error { return pgx.ErrNoRows }

// emptyDBTX answers every query with an empty result set.
type emptyDBTX struct{}

func (emptyDBTX) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (emptyDBTX) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (emptyDBTX) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return emptyRow{}
}

func TestHandleLatestPredictionNone(t *testing.T) {
	r := mux.NewRouter()
	r.Handle("/ml/predictions/{propertyId}",
		handleLatestPrediction(testLogger(), db.New(emptyDBTX{}))).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/ml/predictions/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// a property with no predictions answers 200 with a null body
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))
}

func TestHandleLatestPredictionBadID(t *testing.T) {
	r := mux.NewRouter()
	r.Handle("/ml/predictions/{propertyId}", handleLatestPrediction(testLogger(), nil)).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/ml/predictions/not-a-number", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
