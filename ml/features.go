// Package ml implements the property price prediction engine: a standardized
// linear regression over a fixed feature vector, with a heuristic fallback
// when no trained model is available.
package ml

// NumFeatures is the length of the model feature vector.
const NumFeatures = 8

// Defaults substituted for unset feature fields. They describe a modest
// property near the Sydney CBD.
const (
	defaultBedrooms       = 2
	defaultBathrooms      = 1
	defaultParkingSpaces  = 1
	defaultLandSizeM2     = 500
	defaultBuildingSizeM2 = 120
	defaultLatitude       = -33.8688
	defaultLongitude      = 151.2093
	defaultConvenience    = 50
)

// Features carries the property attributes the pricing model consumes. The
// JSON field names match what API clients and the mobile app already send.
type Features struct {
	Bedrooms         int     `json:"bedrooms,omitempty"`
	Bathrooms        int     `json:"bathrooms,omitempty"`
	ParkingSpaces    int     `json:"parkingSpaces,omitempty"`
	LandSizeM2       float64 `json:"landSizeM2,omitempty"`
	BuildingSizeM2   float64 `json:"buildingSizeM2,omitempty"`
	Lat              float64 `json:"lat,omitempty"`
	Lng              float64 `json:"lng,omitempty"`
	ConvenienceScore float64 `json:"convenienceScore,omitempty"`
}

// Vector flattens f into the model's feature order, substituting defaults
// for zero values. Zero is not a meaningful value for any of these fields,
// so it doubles as "unset".
func (f Features) Vector() []float64 {
	v := make([]float64, NumFeatures)
	v[0] = defaultBedrooms
	if f.Bedrooms != 0 {
		v[0] = float64(f.Bedrooms)
	}
	v[1] = defaultBathrooms
	if f.Bathrooms != 0 {
		v[1] = float64(f.Bathrooms)
	}
	v[2] = defaultParkingSpaces
	if f.ParkingSpaces != 0 {
		v[2] = float64(f.ParkingSpaces)
	}
	v[3] = defaultLandSizeM2
	if f.LandSizeM2 != 0 {
		v[3] = f.LandSizeM2
	}
	v[4] = defaultBuildingSizeM2
	if f.BuildingSizeM2 != 0 {
		v[4] = f.BuildingSizeM2
	}
	v[5] = defaultLatitude
	if f.Lat != 0 {
		v[5] = f.Lat
	}
	v[6] = defaultLongitude
	if f.Lng != 0 {
		v[6] = f.Lng
	}
	v[7] = defaultConvenience
	if f.ConvenienceScore != 0 {
		v[7] = f.ConvenienceScore
	}
	return v
}
