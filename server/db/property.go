package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const propertyColumns = `property_id, address, suburb, state, postcode, bedrooms,
bathrooms, parking_spaces, land_size_m2, building_size_m2, convenience_score,
latitude, longitude, last_price, last_sold_at, source, source_listing_id,
prediction_status, prediction_ts, created_at`

func scanProperty(row pgx.Row) (Property, error) {
	var p Property
	err := row.Scan(
		&p.PropertyID,
		&p.Address,
		&p.Suburb,
		&p.State,
		&p.Postcode,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.ParkingSpaces,
		&p.LandSizeM2,
		&p.BuildingSizeM2,
		&p.ConvenienceScore,
		&p.Latitude,
		&p.Longitude,
		&p.LastPrice,
		&p.LastSoldAt,
		&p.Source,
		&p.SourceListingID,
		&p.PredictionStatus,
		&p.PredictionTS,
		&p.CreatedAt,
	)
	return p, err
}

type CreatePropertyParams struct {
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
}

func (q *Queries) CreateProperty(ctx context.Context, arg CreatePropertyParams) (Property, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO property (
		address, suburb, state, postcode, bedrooms, bathrooms, parking_spaces,
		land_size_m2, building_size_m2, convenience_score, latitude, longitude,
		last_price, last_sold_at, source, source_listing_id
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING `+propertyColumns,
		arg.Address,
		arg.Suburb,
		arg.State,
		arg.Postcode,
		arg.Bedrooms,
		arg.Bathrooms,
		arg.ParkingSpaces,
		arg.LandSizeM2,
		arg.BuildingSizeM2,
		arg.ConvenienceScore,
		arg.Latitude,
		arg.Longitude,
		arg.LastPrice,
		arg.LastSoldAt,
		arg.Source,
		arg.SourceListingID,
	)
	return scanProperty(row)
}

func (q *Queries) GetProperty(ctx context.Context, propertyID int32) (Property, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM property WHERE property_id = $1`,
		propertyID,
	)
	return scanProperty(row)
}

func (q *Queries) DeleteProperty(ctx context.Context, propertyID int32) error {
	_, err := q.db.Exec(ctx, `DELETE FROM property WHERE property_id = $1`, propertyID)
	return err
}

type ListPropertiesParams struct {
	Address        string
	MinPrice       *int64
	MaxPrice       *int64
	MinConvenience *float64
	Latitude       *float64
	Longitude      *float64
	RadiusKm       *float64
	Limit          int32
	Offset         int32
	// SortBy must be a whitelisted column name; callers are expected to have
	// validated it against user input already.
	SortBy    string
	SortOrder string
}

// haversine distance in km between the property row and a query point; the
// two placeholder indexes are for latitude and longitude respectively.
func haversineSQL(latArg, lngArg int) string {
	return fmt.Sprintf(`(6371 * 2 * asin(sqrt(
		power(sin(radians(latitude - $%[1]d) / 2), 2) +
		cos(radians($%[1]d)) * cos(radians(latitude)) *
		power(sin(radians(longitude - $%[2]d) / 2), 2))))`, latArg, lngArg)
}

func (q *Queries) ListProperties(ctx context.Context, arg ListPropertiesParams) ([]Property, error) {
	where := []string{}
	args := []interface{}{}
	if arg.Address != "" {
		args = append(args, "%"+arg.Address+"%")
		where = append(where, fmt.Sprintf("address ILIKE $%d", len(args)))
	}
	if arg.MinPrice != nil {
		args = append(args, *arg.MinPrice)
		where = append(where, fmt.Sprintf("last_price >= $%d", len(args)))
	}
	if arg.MaxPrice != nil {
		args = append(args, *arg.MaxPrice)
		where = append(where, fmt.Sprintf("last_price <= $%d", len(args)))
	}
	if arg.MinConvenience != nil {
		args = append(args, *arg.MinConvenience)
		where = append(where, fmt.Sprintf("convenience_score >= $%d", len(args)))
	}
	if arg.Latitude != nil && arg.Longitude != nil && arg.RadiusKm != nil {
		args = append(args, *arg.Latitude)
		latArg := len(args)
		args = append(args, *arg.Longitude)
		lngArg := len(args)
		args = append(args, *arg.RadiusKm)
		where = append(where, fmt.Sprintf(
			"latitude IS NOT NULL AND longitude IS NOT NULL AND %s <= $%d",
			haversineSQL(latArg, lngArg), len(args)))
	}

	sql := `SELECT ` + propertyColumns + ` FROM property`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sortBy := arg.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder := strings.ToUpper(arg.SortOrder)
	if sortOrder != "ASC" {
		sortOrder = "DESC"
	}
	sql += fmt.Sprintf(" ORDER BY %s %s NULLS LAST, property_id %s", sortBy, sortOrder, sortOrder)
	args = append(args, arg.Limit)
	sql += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, arg.Offset)
	sql += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	props := []Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

// ListPropertyPrices returns the last known sale price of every property that
// has one. Used for the price distribution plot data.
func (q *Queries) ListPropertyPrices(ctx context.Context) ([]int64, error) {
	rows, err := q.db.Query(ctx,
		`SELECT last_price FROM property WHERE last_price IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	prices := []int64{}
	for rows.Next() {
		var p int64
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

type GetNextPropertyForPredictionParams struct {
	Limit    int32
	Statuses []string
}

// GetNextPropertyForPredictionForUpdate locks and returns the least recently
// predicted property whose status is in the supplied set. Callers must run
// this inside a transaction and flip the status to pending before committing.
func (q *Queries) GetNextPropertyForPredictionForUpdate(ctx context.Context, arg GetNextPropertyForPredictionParams) (Property, error) {
	row := q.db.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM property
		WHERE prediction_status = ANY($2)
		ORDER BY prediction_ts ASC NULLS FIRST
		LIMIT $1
		FOR UPDATE SKIP LOCKED`,
		arg.Limit, arg.Statuses,
	)
	return scanProperty(row)
}

type UpdatePropertyPredictionStatusParams struct {
	PropertyID       int32
	PredictionStatus pgtype.Text
}

func (q *Queries) UpdatePropertyPredictionStatus(ctx context.Context, arg UpdatePropertyPredictionStatusParams) error {
	_, err := q.db.Exec(ctx,
		`UPDATE property SET prediction_status = $2, prediction_ts = now()
		WHERE property_id = $1`,
		arg.PropertyID, arg.PredictionStatus,
	)
	return err
}

type TrainingRow struct {
	Property Property
	Price    int64
}

// ListTrainingRows returns every property with a known sale price, paired
// with that price. This is the training set for the pricing model.
func (q *Queries) ListTrainingRows(ctx context.Context) ([]TrainingRow, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+propertyColumns+` FROM property WHERE last_price IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	trs := []TrainingRow{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		trs = append(trs, TrainingRow{Property: p, Price: p.LastPrice.Int64})
	}
	return trs, rows.Err()
}
