package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Property struct {
	PropertyID       int32              `json:"property_id"`
	Address          string             `json:"address"`
	Suburb           pgtype.Text        `json:"suburb"`
	State            pgtype.Text        `json:"state"`
	Postcode         pgtype.Text        `json:"postcode"`
	Bedrooms         pgtype.Int4        `json:"bedrooms"`
	Bathrooms        pgtype.Int4        `json:"bathrooms"`
	ParkingSpaces    pgtype.Int4        `json:"parking_spaces"`
	LandSizeM2       pgtype.Float8      `json:"land_size_m2"`
	BuildingSizeM2   pgtype.Float8      `json:"building_size_m2"`
	ConvenienceScore pgtype.Float8      `json:"convenience_score"`
	Latitude         pgtype.Float8      `json:"latitude"`
	Longitude        pgtype.Float8      `json:"longitude"`
	LastPrice        pgtype.Int8        `json:"last_price"`
	LastSoldAt       pgtype.Timestamptz `json:"last_sold_at"`
	Source           pgtype.Text        `json:"source"`
	SourceListingID  pgtype.Text        `json:"source_listing_id"`
	PredictionStatus pgtype.Text        `json:"prediction_status"`
	PredictionTS     pgtype.Timestamptz `json:"prediction_ts"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
}

type PricePrediction struct {
	PredictionID int32              `json:"prediction_id"`
	PropertyID   int32              `json:"property_id"`
	Price        float64            `json:"price"`
	Confidence   pgtype.Float8      `json:"confidence"`
	ModelVersion string             `json:"model_version"`
	PredictedAt  pgtype.Timestamptz `json:"predicted_at"`
}
