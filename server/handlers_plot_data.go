package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ausproperty/ausproperty/server/db"
	"github.com/brojonat/histogram"
)

// Writes a list of { price, count } objects representing the binned
// distribution of known sale prices.
func handlePlotDataPriceDistribution(l *slog.Logger, q *db.Queries) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := r.URL.Query().Get("version")

		switch v {
		// This case returns a [(x1, y1), ...] that can be used in a step
		// line series.
		case "", "1":
			ps, err := q.ListPropertyPrices(r.Context())
			if err != nil {
				writeInternalError(l, w, err)
				return
			}
			if len(ps) == 0 {
				writeEmptyResultError(w)
				return
			}
			prices := []float64{}
			for _, p := range ps {
				prices = append(prices, float64(p))
			}
			bs, err := histogram.BSExactSpan(10)(prices)
			if err != nil {
				writeInternalError(l, w, err)
				return
			}
			h, err := histogram.Hist(prices, bs, histogram.DefaultBucketer)
			if err != nil {
				writeInternalError(l, w, err)
				return
			}
			type bin struct {
				Price float64 `json:"price"`
				Count int     `json:"count"`
			}
			bins := []bin{}
			for _, b := range h.Buckets {
				bins = append(bins, bin{Price: b.Min, Count: b.Count})
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(bins)
			return
		default:
			writeBadRequestError(w, fmt.Errorf("unsupported version: %s", v))
			return
		}
	}
}
