package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

func getBootstrapSQLMigrations() []string {
	return []string{
		`CREATE TABLE migration_head (
			migration_id INT NOT NULL DEFAULT -1
		)`,
		`INSERT INTO migration_head (migration_id) VALUES (-1)`,
	}
}

func getSQLMigrations() []string {
	return []string{
		`CREATE TABLE property (
			property_id SERIAL PRIMARY KEY,
			address VARCHAR(512) NOT NULL,
			suburb VARCHAR(128),
			state VARCHAR(8),
			postcode VARCHAR(8),
			bedrooms INT,
			bathrooms INT,
			parking_spaces INT,
			land_size_m2 DOUBLE PRECISION,
			building_size_m2 DOUBLE PRECISION,
			convenience_score DOUBLE PRECISION,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			last_price BIGINT,
			last_sold_at TIMESTAMPTZ,
			source VARCHAR(64),
			source_listing_id VARCHAR(64),
			prediction_status VARCHAR(32) NOT NULL DEFAULT 'good',
			prediction_ts TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (source, source_listing_id)
		)`,
		`CREATE TABLE price_prediction (
			prediction_id SERIAL PRIMARY KEY,
			property_id INT NOT NULL REFERENCES property (property_id) ON DELETE CASCADE,
			price DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION,
			model_version VARCHAR(32) NOT NULL,
			predicted_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX price_prediction_latest_idx
			ON price_prediction (property_id, predicted_at DESC, prediction_id DESC)`,
		`CREATE INDEX property_price_idx ON property (last_price)`,
		`CREATE INDEX property_latlng_idx ON property (latitude, longitude)`,
	}
}

// RunMigrations applies any unapplied migrations, bootstrapping the
// migration_head table on first run.
func RunMigrations(ctx context.Context, logger *slog.Logger, db *pgxpool.Pool) error {
	var migrationID int
	row := db.QueryRow(ctx, "SELECT migration_id FROM migration_head")
	err := row.Scan(&migrationID)
	if err != nil {
		logger.Info("migration_head doesn't exist, bootstrapping the db")
		for _, migration := range getBootstrapSQLMigrations() {
			if _, err := db.Exec(ctx, migration); err != nil {
				return fmt.Errorf("failed to bootstrap db: %w", err)
			}
		}
		migrationID = -1
	}
	for i, migration := range getSQLMigrations() {
		if i <= migrationID {
			continue
		}
		logger.Info("applying migration", "migration_id", i)
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed at migration %d: %w", i, err)
		}
		if _, err := db.Exec(ctx, "UPDATE migration_head SET migration_id = $1", i); err != nil {
			return fmt.Errorf("failed to update migration head for migration %d: %w", i, err)
		}
	}
	return nil
}
