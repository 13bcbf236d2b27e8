package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ausproperty/ausproperty/ml"
	"github.com/ausproperty/ausproperty/server/db"
	"github.com/urfave/cli/v2"
)

// train_model fits the pricing model from the properties with known sale
// prices and persists the artifact, bypassing the HTTP API. Useful for
// re-seeding the model after a bulk ingest.
func train_model(ctx *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	pool, err := getConnPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	rows, err := db.New(pool).ListTrainingRows(ctx.Context)
	if err != nil {
		return err
	}
	feats := make([]ml.Features, 0, len(rows))
	prices := make([]float64, 0, len(rows))
	for _, r := range rows {
		feats = append(feats, featuresFromTrainingRow(r))
		prices = append(prices, float64(r.Price))
	}

	engine, err := getEngine(ctx, logger, getRedisClient())
	if err != nil {
		return err
	}
	res, err := engine.Train(ctx.Context, feats, prices)
	if err != nil {
		return err
	}
	if !res.Trained {
		return fmt.Errorf("not trained: %s", res.Message)
	}
	logger.Info("model trained",
		"samples", res.Samples, "r_squared", res.RSquared, "model_key", res.ModelKey)
	return nil
}

func featuresFromTrainingRow(r db.TrainingRow) ml.Features {
	p := r.Property
	f := ml.Features{}
	if p.Bedrooms.Valid {
		f.Bedrooms = int(p.Bedrooms.Int32)
	}
	if p.Bathrooms.Valid {
		f.Bathrooms = int(p.Bathrooms.Int32)
	}
	if p.ParkingSpaces.Valid {
		f.ParkingSpaces = int(p.ParkingSpaces.Int32)
	}
	if p.LandSizeM2.Valid {
		f.LandSizeM2 = p.LandSizeM2.Float64
	}
	if p.BuildingSizeM2.Valid {
		f.BuildingSizeM2 = p.BuildingSizeM2.Float64
	}
	if p.Latitude.Valid {
		f.Lat = p.Latitude.Float64
	}
	if p.Longitude.Valid {
		f.Lng = p.Longitude.Float64
	}
	if p.ConvenienceScore.Valid {
		f.ConvenienceScore = p.ConvenienceScore.Float64
	}
	return f
}
