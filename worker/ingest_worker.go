package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ausproperty/ausproperty/connectors"
	"github.com/ausproperty/ausproperty/server/db"
	"github.com/jackc/pgx/v5/pgtype"
)

// MakeIngestWorkerFunc returns a worker that searches the named connector
// for listings matching query and upserts them as properties through the
// server API. Listings the server already knows about (409) are skipped.
func MakeIngestWorkerFunc(
	endpoint string,
	authToken string,
	source string,
	c connectors.Client,
	query string,
) func(context.Context, *slog.Logger) {
	return func(ctx context.Context, l *slog.Logger) {
		l.Info("running ingest worker", "source", source, "query", query)
		h := getDefaultServerHeaders(authToken)

		b, err := c.Search(query, nil)
		if err != nil {
			l.Error("connector search failed", "error", err.Error())
			return
		}
		ids, err := connectors.ParseSearchListingIDs(b)
		if err != nil {
			l.Error("could not parse search results", "error", err.Error())
			return
		}
		l.Info("search returned listings", "count", len(ids))

		for _, id := range ids {
			if ctx.Err() != nil {
				return
			}
			listing, err := fetchListing(c, id)
			if err != nil {
				l.Error("skipping listing", "listing_id", id, "error", err.Error())
				continue
			}
			created, err := createProperty(endpoint, h, listingToCreateParams(source, listing))
			if err != nil {
				l.Error("error creating property", "listing_id", id, "error", err.Error())
				continue
			}
			if created {
				l.Info("ingested listing", "listing_id", id, "address", listing.Address)
			}
		}
	}
}

func fetchListing(c connectors.Client, listingID string) (*connectors.Listing, error) {
	b, err := c.ListingDetails(listingID, nil)
	if err != nil {
		return nil, err
	}
	listing, err := connectors.ParseListing(b)
	if err != nil {
		return nil, err
	}
	// the sold history is best-effort; listings without one still ingest
	if hb, err := c.SoldHistory(listingID, nil); err == nil {
		if events, err := connectors.ParseSoldEvents(hb); err == nil && len(events) > 0 {
			latest := events[0]
			for _, e := range events[1:] {
				if e.SoldAt.After(latest.SoldAt) {
					latest = e
				}
			}
			if listing.Price == 0 {
				listing.Price = latest.Price
			}
			listing.LastSoldAt = latest.SoldAt
		}
	}
	return listing, nil
}

func listingToCreateParams(source string, l *connectors.Listing) db.CreatePropertyParams {
	p := db.CreatePropertyParams{
		Address:         l.Address,
		Source:          pgtype.Text{String: source, Valid: true},
		SourceListingID: pgtype.Text{String: l.ListingID, Valid: true},
	}
	if l.Suburb != "" {
		p.Suburb = pgtype.Text{String: l.Suburb, Valid: true}
	}
	if l.State != "" {
		p.State = pgtype.Text{String: l.State, Valid: true}
	}
	if l.Postcode != "" {
		p.Postcode = pgtype.Text{String: l.Postcode, Valid: true}
	}
	if l.Bedrooms != 0 {
		p.Bedrooms = pgtype.Int4{Int32: int32(l.Bedrooms), Valid: true}
	}
	if l.Bathrooms != 0 {
		p.Bathrooms = pgtype.Int4{Int32: int32(l.Bathrooms), Valid: true}
	}
	if l.ParkingSpaces != 0 {
		p.ParkingSpaces = pgtype.Int4{Int32: int32(l.ParkingSpaces), Valid: true}
	}
	if l.LandSizeM2 != 0 {
		p.LandSizeM2 = pgtype.Float8{Float64: l.LandSizeM2, Valid: true}
	}
	if l.BuildingSizeM2 != 0 {
		p.BuildingSizeM2 = pgtype.Float8{Float64: l.BuildingSizeM2, Valid: true}
	}
	if l.Latitude != 0 || l.Longitude != 0 {
		p.Latitude = pgtype.Float8{Float64: l.Latitude, Valid: true}
		p.Longitude = pgtype.Float8{Float64: l.Longitude, Valid: true}
	}
	if l.Price != 0 {
		p.LastPrice = pgtype.Int8{Int64: l.Price, Valid: true}
	}
	if !l.LastSoldAt.IsZero() {
		p.LastSoldAt = pgtype.Timestamptz{Time: l.LastSoldAt, Valid: true}
	}
	return p
}

// createProperty posts the property to the server. It returns false without
// an error when the server already has the listing.
func createProperty(endpoint string, h http.Header, params db.CreatePropertyParams) (bool, error) {
	b, err := json.Marshal(params)
	if err != nil {
		return false, err
	}
	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/properties", endpoint),
		bytes.NewReader(b),
	)
	if err != nil {
		return false, err
	}
	req.Header = h
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusConflict {
		return false, nil
	}
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return false, fmt.Errorf("create property returned %s", res.Status)
	}
	return true, nil
}
