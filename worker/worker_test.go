package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ausproperty/ausproperty/ml"
	"github.com/ausproperty/ausproperty/server/db"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunWorkerFuncCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- RunWorkerFunc(ctx, testLogger(), 10*time.Millisecond, func(context.Context, *slog.Logger) {
			runs.Add(1)
		})
	}()

	// let it tick a few times, then cancel
	time.Sleep(55 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	assert.Greater(t, runs.Load(), int32(0))
}

func TestGetDefaultServerHeaders(t *testing.T) {
	h := getDefaultServerHeaders("tok")
	assert.Equal(t, "Bearer tok", h.Get("Authorization"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
}

func TestFeaturesFromProperty(t *testing.T) {
	p := &db.Property{
		Bedrooms:         pgtype.Int4{Int32: 4, Valid: true},
		Bathrooms:        pgtype.Int4{Int32: 2, Valid: true},
		LandSizeM2:       pgtype.Float8{Float64: 610, Valid: true},
		Latitude:         pgtype.Float8{Float64: -33.9, Valid: true},
		Longitude:        pgtype.Float8{Float64: 151.1, Valid: true},
		ConvenienceScore: pgtype.Float8{Float64: 77, Valid: true},
	}
	f := featuresFromProperty(p)
	assert.Equal(t, 4, f.Bedrooms)
	assert.Equal(t, 2, f.Bathrooms)
	assert.Equal(t, 0, f.ParkingSpaces) // unset stays zero, defaults apply downstream
	assert.Equal(t, 610.0, f.LandSizeM2)
	assert.Equal(t, -33.9, f.Lat)
	assert.Equal(t, 151.1, f.Lng)
	assert.Equal(t, 77.0, f.ConvenienceScore)
}

// fakeServer implements just enough of the server API for the prediction
// worker's round trip.
func fakeServer(t *testing.T) (*httptest.Server, *struct {
	claims, predicts, creates int32
	statuses                  []string
}) {
	t.Helper()
	state := &struct {
		claims, predicts, creates int32
		statuses                  []string
	}{}
	mux := http.NewServeMux()
	mux.HandleFunc("/properties/claim-next", func(w http.ResponseWriter, r *http.Request) {
		state.claims++
		p := db.Property{
			PropertyID: 7,
			Address:    "12 Wattle St, Surry Hills",
			Bedrooms:   pgtype.Int4{Int32: 3, Valid: true},
		}
		json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc("/ml/predict", func(w http.ResponseWriter, r *http.Request) {
		state.predicts++
		var body struct {
			Property ml.Features `json:"property"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3, body.Property.Bedrooms)
		json.NewEncoder(w).Encode(ml.Prediction{
			Price:        987654,
			Confidence:   0.3,
			ModelVersion: "v1",
			PredictedAt:  time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ml/predictions", func(w http.ResponseWriter, r *http.Request) {
		state.creates++
		var body struct {
			PropertyID   int32   `json:"property_id"`
			Price        float64 `json:"price"`
			ModelVersion string  `json:"model_version"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int32(7), body.PropertyID)
		assert.Equal(t, "v1", body.ModelVersion)
		json.NewEncoder(w).Encode(db.PricePrediction{PredictionID: 1, PropertyID: 7, Price: 987654})
	})
	mux.HandleFunc("/properties/set-status", func(w http.ResponseWriter, r *http.Request) {
		state.statuses = append(state.statuses, r.URL.Query().Get("status"))
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})
	return httptest.NewServer(mux), state
}

func TestPredictionWorkerRoundTrip(t *testing.T) {
	srv, state := fakeServer(t)
	defer srv.Close()

	f := MakePredictionWorkerFunc(srv.URL, "tok")
	f(context.Background(), testLogger())

	assert.Equal(t, int32(1), state.claims)
	assert.Equal(t, int32(1), state.predicts)
	assert.Equal(t, int32(1), state.creates)
	assert.Equal(t, []string{"good"}, state.statuses)
}

func TestPredictionWorkerClaimFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// nothing to claim; the worker just returns
	f := MakePredictionWorkerFunc(srv.URL, "tok")
	f(context.Background(), testLogger())
}

func TestCreatePropertyConflictSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	created, err := createProperty(srv.URL, getDefaultServerHeaders("tok"), db.CreatePropertyParams{
		Address: "1 Smith St",
	})
	require.NoError(t, err)
	assert.False(t, created)
}
