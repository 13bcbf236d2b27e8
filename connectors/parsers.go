package connectors

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jmespath/go-jmespath"
)

// Listing is the subset of a connector listing payload the platform stores.
type Listing struct {
	ListingID        string
	Address          string
	Suburb           string
	State            string
	Postcode         string
	Bedrooms         int
	Bathrooms        int
	ParkingSpaces    int
	LandSizeM2       float64
	BuildingSizeM2   float64
	Latitude         float64
	Longitude        float64
	Price            int64
	LastSoldAt       time.Time
}

// SoldEvent is a single entry from a listing's sale history.
type SoldEvent struct {
	Price  int64
	SoldAt time.Time
}

// ParseListing extracts the stored fields from a ListingDetails payload.
// Missing optional fields are left at their zero values; a payload without
// an id or address is rejected.
func ParseListing(b []byte) (*Listing, error) {
	var data interface{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("error parsing listing payload: %w", err)
	}
	l := Listing{}

	id, err := jmespath.Search("listing.id", data)
	if err != nil || id == nil {
		return nil, fmt.Errorf("listing payload missing id")
	}
	switch v := id.(type) {
	case string:
		l.ListingID = v
	case float64:
		l.ListingID = fmt.Sprintf("%d", int64(math.Round(v)))
	default:
		return nil, fmt.Errorf("unexpected type for listing id: %T", id)
	}

	addr, err := jmespath.Search("listing.propertyDetails.displayableAddress", data)
	if err != nil || addr == nil {
		return nil, fmt.Errorf("listing payload missing address")
	}
	l.Address = addr.(string)

	if v, _ := jmespath.Search("listing.propertyDetails.suburb", data); v != nil {
		l.Suburb = v.(string)
	}
	if v, _ := jmespath.Search("listing.propertyDetails.state", data); v != nil {
		l.State = v.(string)
	}
	if v, _ := jmespath.Search("listing.propertyDetails.postcode", data); v != nil {
		l.Postcode = v.(string)
	}
	if v, _ := jmespath.Search("listing.propertyDetails.bedrooms", data); v != nil {
		l.Bedrooms = int(math.Round(v.(float64)))
	}
	if v, _ := jmespath.Search("listing.propertyDetails.bathrooms", data); v != nil {
		l.Bathrooms = int(math.Round(v.(float64)))
	}
	if v, _ := jmespath.Search("listing.propertyDetails.carspaces", data); v != nil {
		l.ParkingSpaces = int(math.Round(v.(float64)))
	}
	if v, _ := jmespath.Search("listing.propertyDetails.landArea", data); v != nil {
		l.LandSizeM2 = v.(float64)
	}
	if v, _ := jmespath.Search("listing.propertyDetails.buildingArea", data); v != nil {
		l.BuildingSizeM2 = v.(float64)
	}
	if v, _ := jmespath.Search("listing.propertyDetails.latitude", data); v != nil {
		l.Latitude = v.(float64)
	}
	if v, _ := jmespath.Search("listing.propertyDetails.longitude", data); v != nil {
		l.Longitude = v.(float64)
	}
	if v, _ := jmespath.Search("listing.priceDetails.price", data); v != nil {
		l.Price = int64(math.Round(v.(float64)))
	}
	return &l, nil
}

// ParseSoldEvents extracts the sale history from a SoldHistory payload.
// Entries without a price are skipped; the upstream sends timestamps as
// epoch milliseconds.
func ParseSoldEvents(b []byte) ([]SoldEvent, error) {
	var data interface{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("error parsing sold history payload: %w", err)
	}
	events := []SoldEvent{}
	nevents, err := jmespath.Search("length(saleHistory.sales)", data)
	if err != nil {
		return nil, fmt.Errorf("could not parse sale history")
	}
	if nevents == nil {
		return events, nil
	}
	for i := range int(math.Round(nevents.(float64))) {
		pricePath := fmt.Sprintf("saleHistory.sales[%d].price", i)
		tsPath := fmt.Sprintf("saleHistory.sales[%d].soldDate", i)

		// ignore errors here since individual entries are best-effort
		price, _ := jmespath.Search(pricePath, data)
		ts, _ := jmespath.Search(tsPath, data)
		if price == nil {
			continue
		}
		e := SoldEvent{Price: int64(math.Round(price.(float64)))}
		if ts != nil {
			e.SoldAt = time.Unix(0, int64(time.Millisecond)*int64(math.Round(ts.(float64))))
		}
		events = append(events, e)
	}
	return events, nil
}

// ParseSearchListingIDs pulls the listing ids out of a Search payload.
func ParseSearchListingIDs(b []byte) ([]string, error) {
	var data interface{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("error parsing search payload: %w", err)
	}
	res, err := jmespath.Search("results[].listing.id", data)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return []string{}, nil
	}
	ress, ok := res.([]interface{})
	if !ok {
		return nil, fmt.Errorf("could not handle jmes return type")
	}
	ids := []string{}
	for _, rv := range ress {
		switch v := rv.(type) {
		case string:
			ids = append(ids, v)
		case float64:
			ids = append(ids, fmt.Sprintf("%d", int64(math.Round(v))))
		}
	}
	return ids, nil
}
