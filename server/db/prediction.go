package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type CreatePricePredictionParams struct {
	PropertyID   int32              `json:"property_id"`
	Price        float64            `json:"price"`
	Confidence   pgtype.Float8      `json:"confidence"`
	ModelVersion string             `json:"model_version"`
	PredictedAt  pgtype.Timestamptz `json:"predicted_at"`
}

func (q *Queries) CreatePricePrediction(ctx context.Context, arg CreatePricePredictionParams) (PricePrediction, error) {
	row := q.db.QueryRow(ctx,
		`INSERT INTO price_prediction (property_id, price, confidence, model_version, predicted_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING prediction_id, property_id, price, confidence, model_version, predicted_at`,
		arg.PropertyID,
		arg.Price,
		arg.Confidence,
		arg.ModelVersion,
		arg.PredictedAt,
	)
	var p PricePrediction
	err := row.Scan(
		&p.PredictionID,
		&p.PropertyID,
		&p.Price,
		&p.Confidence,
		&p.ModelVersion,
		&p.PredictedAt,
	)
	return p, err
}

// GetLatestPredictionForProperty returns the single most recent prediction by
// predicted_at for the given property; ties broken by prediction_id.
func (q *Queries) GetLatestPredictionForProperty(ctx context.Context, propertyID int32) (PricePrediction, error) {
	row := q.db.QueryRow(ctx,
		`SELECT prediction_id, property_id, price, confidence, model_version, predicted_at
		FROM price_prediction
		WHERE property_id = $1
		ORDER BY predicted_at DESC, prediction_id DESC
		LIMIT 1`,
		propertyID,
	)
	var p PricePrediction
	err := row.Scan(
		&p.PredictionID,
		&p.PropertyID,
		&p.Price,
		&p.Confidence,
		&p.ModelVersion,
		&p.PredictedAt,
	)
	return p, err
}
