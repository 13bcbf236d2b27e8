package server

import (
	"github.com/ausproperty/ausproperty/ml"
	"github.com/ausproperty/ausproperty/server/db"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/twpayne/go-geom"
)

type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// propertyResponse is a db.Property with its coordinates lifted into a
// GeoJSON Point, which is what the map clients consume.
type propertyResponse struct {
	db.Property
	Location *Location `json:"location"`
}

func makePropertySerializable(p db.Property) propertyResponse {
	if !p.Latitude.Valid || !p.Longitude.Valid {
		return propertyResponse{p, nil}
	}
	pt := geom.NewPointFlat(geom.XY, []float64{p.Longitude.Float64, p.Latitude.Float64})
	return propertyResponse{p, &Location{Type: "Point", Coordinates: pt.Coords()}}
}

func makePropertiesSerializable(ps []db.Property) []propertyResponse {
	res := []propertyResponse{}
	for _, p := range ps {
		res = append(res, makePropertySerializable(p))
	}
	return res
}

// createPropertyBody lets clients send a GeoJSON location instead of bare
// lat/lng columns.
type createPropertyBody struct {
	db.CreatePropertyParams
	Location *Location `json:"location"`
}

func (b *createPropertyBody) params() db.CreatePropertyParams {
	p := b.CreatePropertyParams
	if b.Location != nil && len(b.Location.Coordinates) == 2 {
		p.Longitude = pgtype.Float8{Float64: b.Location.Coordinates[0], Valid: true}
		p.Latitude = pgtype.Float8{Float64: b.Location.Coordinates[1], Valid: true}
	}
	return p
}

type predictBody struct {
	Property  ml.Features `json:"property"`
	LastPrice *int64      `json:"last_price"`
}

type trainBody struct {
	Properties []ml.Features `json:"properties"`
	Prices     []float64     `json:"prices"`
}
