package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ausproperty/ausproperty/server/db"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

func handlePropertiesList(l *slog.Logger, q *db.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseListPropertiesQuery(r.URL.Query())
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		props, err := q.ListProperties(r.Context(), params)
		if err != nil {
			writeInternalError(l, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(makePropertiesSerializable(props))
	}
}

func handlePropertyGet(l *slog.Logger, q *db.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, err := strconv.Atoi(mux.Vars(r)["propertyId"])
		if err != nil {
			writeBadRequestError(w, fmt.Errorf("bad value for propertyId"))
			return
		}
		prop, err := q.GetProperty(r.Context(), int32(pid))
		if err == pgx.ErrNoRows {
			writeEmptyResultError(w)
			return
		}
		if err != nil {
			writeInternalError(l, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(makePropertySerializable(prop))
	}
}

func handlePropertyPost(l *slog.Logger, q *db.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createPropertyBody
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
		if body.Address == "" {
			writeBadRequestError(w, fmt.Errorf("must supply address"))
			return
		}
		prop, err := q.CreateProperty(r.Context(), body.params())
		if err != nil {
			if isPGError(err, pgErrorUniqueViolation) {
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(defaultJSONResponse{Error: pgErrorText(pgErrorUniqueViolation)})
				return
			}
			writeInternalError(l, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(makePropertySerializable(prop))
	}
}

func handlePropertyDelete(l *slog.Logger, q *db.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := r.URL.Query().Get("property_id")
		if propertyID == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(defaultJSONResponse{Error: "must supply property_id"})
			return
		}
		pid, err := strconv.Atoi(propertyID)
		if err != nil {
			writeBadRequestError(w, fmt.Errorf("bad value for property_id"))
			return
		}
		if err := q.DeleteProperty(r.Context(), int32(pid)); err != nil {
			writeInternalError(l, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(defaultJSONResponse{Message: "ok"})
	}
}

// claims the next property due for a prediction refresh and sets the status
// to pending
func handlePropertyClaimNext(l *slog.Logger, p *pgxpool.Pool, q *db.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tx, err := p.Begin(r.Context())
		if err != nil {
			writeInternalError(l, w, err)
			return
		}
		defer tx.Rollback(r.Context())
		qtx := q.WithTx(tx)
		prop, err := qtx.GetNextPropertyForPredictionForUpdate(
			r.Context(),
			db.GetNextPropertyForPredictionParams{
				Limit:    1,
				Statuses: []string{PredictionStatusGood, PredictionStatusStale},
			},
		)
		if err == pgx.ErrNoRows {
			writeEmptyResultError(w)
			return
		}
		if err != nil {
			writeInternalError(l, w, err)
			return
		}
		err = qtx.UpdatePropertyPredictionStatus(
			r.Context(),
			db.UpdatePropertyPredictionStatusParams{
				PropertyID:       prop.PropertyID,
				PredictionStatus: pgtype.Text{String: PredictionStatusPending, Valid: true},
			},
		)
		if err != nil {
			writeInternalError(l, w, err)
			return
		}
		if err := tx.Commit(r.Context()); err != nil {
			writeInternalError(l, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(makePropertySerializable(prop))
	}
}

func handlePropertySetStatus(l *slog.Logger, q *db.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID := r.URL.Query().Get("property_id")
		status := r.URL.Query().Get("status")

		if propertyID == "" || status == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(defaultJSONResponse{Error: "must specify property_id and status"})
			return
		}
		pid, err := strconv.Atoi(propertyID)
		if err != nil {
			writeBadRequestError(w, fmt.Errorf("bad value for property_id"))
			return
		}
		if !isValidStatus(status) {
			writeBadRequestError(w, fmt.Errorf("unsupported status: %s", status))
			return
		}
		err = q.UpdatePropertyPredictionStatus(
			r.Context(),
			db.UpdatePropertyPredictionStatusParams{
				PropertyID:       int32(pid),
				PredictionStatus: pgtype.Text{String: status, Valid: true},
			},
		)
		if err != nil {
			writeInternalError(l, w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(defaultJSONResponse{Message: "ok"})
	}
}
