package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ausproperty/ausproperty/server/db"
)

const (
	defaultListLimit = 20
	maxListLimit     = 50
)

// sortColumns maps the query param values clients send to the columns they
// sort on. Anything else is a 400.
var sortColumns = map[string]string{
	"price":             "last_price",
	"convenience_score": "convenience_score",
	"created_at":        "created_at",
	"last_sold_at":      "last_sold_at",
}

// parseListPropertiesQuery validates the property filter params and builds
// the query args. All validation happens here, before any database work.
func parseListPropertiesQuery(v url.Values) (db.ListPropertiesParams, error) {
	p := db.ListPropertiesParams{
		Address: v.Get("address"),
		Limit:   defaultListLimit,
		SortBy:  "created_at",
	}

	if s := v.Get("minPrice"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return p, fmt.Errorf("bad value for minPrice")
		}
		p.MinPrice = &n
	}
	if s := v.Get("maxPrice"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return p, fmt.Errorf("bad value for maxPrice")
		}
		p.MaxPrice = &n
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return p, fmt.Errorf("minPrice must not exceed maxPrice")
	}

	if s := v.Get("minConvenience"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 || f > 100 {
			return p, fmt.Errorf("minConvenience must be between 0 and 100")
		}
		p.MinConvenience = &f
	}

	lat, lng, rad := v.Get("latitude"), v.Get("longitude"), v.Get("radiusKm")
	if lat != "" || lng != "" || rad != "" {
		if lat == "" || lng == "" || rad == "" {
			return p, fmt.Errorf("latitude, longitude, and radiusKm must be supplied together")
		}
		latF, err := strconv.ParseFloat(lat, 64)
		if err != nil || latF < -90 || latF > 90 {
			return p, fmt.Errorf("bad value for latitude")
		}
		lngF, err := strconv.ParseFloat(lng, 64)
		if err != nil || lngF < -180 || lngF > 180 {
			return p, fmt.Errorf("bad value for longitude")
		}
		radF, err := strconv.ParseFloat(rad, 64)
		if err != nil || radF <= 0 {
			return p, fmt.Errorf("bad value for radiusKm")
		}
		p.Latitude = &latF
		p.Longitude = &lngF
		p.RadiusKm = &radF
	}

	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return p, fmt.Errorf("bad value for limit")
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		p.Limit = int32(n)
	}
	if s := v.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return p, fmt.Errorf("bad value for offset")
		}
		p.Offset = int32(n)
	}

	if s := v.Get("sortBy"); s != "" {
		col, ok := sortColumns[s]
		if !ok {
			return p, fmt.Errorf("unsupported sortBy: %s", s)
		}
		p.SortBy = col
	}
	p.SortOrder = "DESC"
	if s := v.Get("sortOrder"); s != "" {
		switch strings.ToLower(s) {
		case "asc":
			p.SortOrder = "ASC"
		case "desc":
			p.SortOrder = "DESC"
		default:
			return p, fmt.Errorf("sortOrder must be asc or desc")
		}
	}
	return p, nil
}
