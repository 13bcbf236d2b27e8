package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ausproperty/ausproperty/ml"
	"github.com/ausproperty/ausproperty/server/db"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
)

// handleLatestPrediction writes the most recent prediction for a property,
// or a JSON null when the property has never been predicted.
func handleLatestPrediction(l *slog.Logger, q *db.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, err := strconv.Atoi(mux.Vars(r)["propertyId"])
		if err != nil {
			writeBadRequestError(w, fmt.Errorf("bad value for propertyId"))
			return
		}
		pred, err := q.GetLatestPredictionForProperty(r.Context(), int32(pid))
		if err == pgx.ErrNoRows {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(nil)
			return
		}
		if err != nil {
			writeInternalError(l, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(pred)
	}
}

// handlePredictionPost stores a prediction record; the worker calls this
// after a refresh.
func handlePredictionPost(l *slog.Logger, q *db.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p db.CreatePricePredictionParams
		err := decodeJSONBody(r, &p)
		if err != nil {
			var mr *MalformedRequest
			if errors.As(err, &mr) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(defaultJSONResponse{Error: mr.Msg})
			} else {
				writeInternalError(l, w, err)
			}
			return
		}
		if p.PropertyID == 0 || p.ModelVersion == "" {
			writeBadRequestError(w, fmt.Errorf("must supply property_id and model_version"))
			return
		}
		pred, err := q.CreatePricePrediction(r.Context(), p)
		if err != nil {
			if isPGError(err, pgErrorForeignKeyViolation) {
				writeBadRequestError(w, fmt.Errorf("prediction must map to an existing property"))
				return
			}
			writeInternalError(l, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(pred)
	}
}

func handlePredict(l *slog.Logger, engine *ml.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body predictBody
		err := decodeJSONBody(r, &body)
		if err != nil {
			var mr *MalformedRequest
			if errors.As(err, &mr) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(defaultJSONResponse{Error: mr.Msg})
			} else {
				writeInternalError(l, w, err)
			}
			return
		}
		pred := engine.Predict(r.Context(), body.Property)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(pred)
	}
}

func handleTrain(l *slog.Logger, engine *ml.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body trainBody
		err := decodeJSONBody(r, &body)
		if err != nil {
			var mr *MalformedRequest
			if errors.As(err, &mr) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(defaultJSONResponse{Error: mr.Msg})
			} else {
				writeInternalError(l, w, err)
			}
			return
		}
		res, err := engine.Train(r.Context(), body.Properties, body.Prices)
		if err != nil {
			writeInternalError(l, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(res)
	}
}
