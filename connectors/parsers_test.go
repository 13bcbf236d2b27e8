package connectors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPayload = `{
	"listing": {
		"id": 2019123456,
		"propertyDetails": {
			"displayableAddress": "12 Wattle St, Surry Hills",
			"suburb": "Surry Hills",
			"state": "NSW",
			"postcode": "2010",
			"bedrooms": 3,
			"bathrooms": 2,
			"carspaces": 1,
			"landArea": 220.5,
			"buildingArea": 145,
			"latitude": -33.8847,
			"longitude": 151.2111
		},
		"priceDetails": {"price": 1650000}
	}
}`

func TestParseListing(t *testing.T) {
	l, err := ParseListing([]byte(listingPayload))
	require.NoError(t, err)
	assert.Equal(t, "2019123456", l.ListingID)
	assert.Equal(t, "12 Wattle St, Surry Hills", l.Address)
	assert.Equal(t, "Surry Hills", l.Suburb)
	assert.Equal(t, "NSW", l.State)
	assert.Equal(t, "2010", l.Postcode)
	assert.Equal(t, 3, l.Bedrooms)
	assert.Equal(t, 2, l.Bathrooms)
	assert.Equal(t, 1, l.ParkingSpaces)
	assert.Equal(t, 220.5, l.LandSizeM2)
	assert.Equal(t, 145.0, l.BuildingSizeM2)
	assert.Equal(t, -33.8847, l.Latitude)
	assert.Equal(t, 151.2111, l.Longitude)
	assert.Equal(t, int64(1650000), l.Price)
}

func TestParseListingMissingOptionalFields(t *testing.T) {
	l, err := ParseListing([]byte(`{
		"listing": {
			"id": "abc-123",
			"propertyDetails": {"displayableAddress": "1 Smith St"}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", l.ListingID)
	assert.Equal(t, "1 Smith St", l.Address)
	assert.Equal(t, 0, l.Bedrooms)
	assert.Equal(t, int64(0), l.Price)
}

func TestParseListingRejects(t *testing.T) {
	_, err := ParseListing([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseListing([]byte(`{"listing": {"propertyDetails": {"displayableAddress": "x"}}}`))
	assert.Error(t, err)

	_, err = ParseListing([]byte(`{"listing": {"id": 1}}`))
	assert.Error(t, err)
}

func TestParseSoldEvents(t *testing.T) {
	events, err := ParseSoldEvents([]byte(`{
		"saleHistory": {
			"sales": [
				{"price": 1200000, "soldDate": 1577836800000},
				{"soldDate": 1609459200000},
				{"price": 1420000, "soldDate": 1640995200000}
			]
		}
	}`))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1200000), events[0].Price)
	assert.Equal(t, 2020, events[0].SoldAt.UTC().Year())
	assert.Equal(t, int64(1420000), events[1].Price)

	// no history at all is fine
	events, err = ParseSoldEvents([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseSearchListingIDs(t *testing.T) {
	ids, err := ParseSearchListingIDs([]byte(`{
		"results": [
			{"listing": {"id": 100}},
			{"listing": {"id": "200"}},
			{"listing": {"id": 300}}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "200", "300"}, ids)

	ids, err = ParseSearchListingIDs([]byte(`{"results": []}`))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestParseSoldEventsTimestampMillis(t *testing.T) {
	events, err := ParseSoldEvents([]byte(`{
		"saleHistory": {"sales": [{"price": 1, "soldDate": 86400000}]}
	}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC), events[0].SoldAt.UTC())
}
