package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ausproperty/ausproperty/ml"
	"github.com/ausproperty/ausproperty/server/db"
)

// MakePredictionWorkerFunc returns a worker that claims the next property
// due for a prediction refresh, asks the server for a price, and stores the
// resulting prediction record.
func MakePredictionWorkerFunc(endpoint string, authToken string) func(context.Context, *slog.Logger) {
	return func(ctx context.Context, l *slog.Logger) {
		l.Info("running prediction worker")
		h := getDefaultServerHeaders(authToken)
		p, err := claimProperty(endpoint, h)
		if err != nil {
			l.Error("error claiming property", "error", err.Error())
			return
		}
		l.Info("claimed property", "property_id", p.PropertyID, "address", p.Address)

		pred, err := predict(endpoint, h, featuresFromProperty(p))
		if err != nil {
			l.Error("error predicting price", "error", err.Error())
			setPropertyStatus(endpoint, h, p.PropertyID, "stale")
			return
		}
		if err := createPrediction(endpoint, h, p.PropertyID, pred); err != nil {
			l.Error("error storing prediction", "error", err.Error())
			setPropertyStatus(endpoint, h, p.PropertyID, "stale")
			return
		}
		if err := setPropertyStatus(endpoint, h, p.PropertyID, "good"); err != nil {
			l.Error("error resetting property status", "error", err.Error())
			return
		}
		l.Info("stored prediction",
			"property_id", p.PropertyID, "price", pred.Price, "confidence", pred.Confidence)
	}
}

func featuresFromProperty(p *db.Property) ml.Features {
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

func claimProperty(endpoint string, headers http.Header) (*db.Property, error) {
	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/properties/claim-next", endpoint),
		nil,
	)
	if err != nil {
		return nil, err
	}
	req.Header = headers
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("claim-next returned %s", res.Status)
	}
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	var p db.Property
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func predict(endpoint string, h http.Header, f ml.Features) (*ml.Prediction, error) {
	body := struct {
		Property ml.Features `json:"property"`
	}{Property: f}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/ml/predict", endpoint),
		bytes.NewReader(b),
	)
	if err != nil {
		return nil, err
	}
	req.Header = h
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predict returned %s", res.Status)
	}
	var pred ml.Prediction
	if err := json.NewDecoder(res.Body).Decode(&pred); err != nil {
		return nil, err
	}
	return &pred, nil
}

func createPrediction(endpoint string, h http.Header, propertyID int32, pred *ml.Prediction) error {
	body := struct {
		PropertyID   int32   `json:"property_id"`
		Price        float64 `json:"price"`
		Confidence   float64 `json:"confidence"`
		ModelVersion string  `json:"model_version"`
		PredictedAt  string  `json:"predicted_at"`
	}{
		PropertyID:   propertyID,
		Price:        pred.Price,
		Confidence:   pred.Confidence,
		ModelVersion: pred.ModelVersion,
		PredictedAt:  pred.PredictedAt,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/ml/predictions", endpoint),
		bytes.NewReader(b),
	)
	if err != nil {
		return err
	}
	req.Header = h
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return fmt.Errorf("create prediction returned %s", res.Status)
	}
	return nil
}

func setPropertyStatus(endpoint string, h http.Header, propertyID int32, status string) error {
	q := url.Values{}
	q.Set("property_id", fmt.Sprintf("%d", propertyID))
	q.Set("status", status)
	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/properties/set-status?%s", endpoint, q.Encode()),
		nil,
	)
	if err != nil {
		return err
	}
	req.Header = h
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("set-status returned %s", res.Status)
	}
	return nil
}
