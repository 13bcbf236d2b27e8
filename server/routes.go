package server

import (
	"log/slog"
	"net/http"

	"firebase.google.com/go/auth"
	"github.com/ausproperty/ausproperty/ml"
	"github.com/ausproperty/ausproperty/server/db"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
)

func getRootHandler(
	l *slog.Logger,
	fbc *auth.Client,
	p *pgxpool.Pool,
	q *db.Queries,
	engine *ml.Engine,
	h *healthMonitor,
) http.Handler {
	r := mux.NewRouter()
	allowedHeaders := []string{"Authorization", "Content-Type", "Firebase-JWT"}
	allowedMethods := []string{http.MethodGet, http.MethodPost, http.MethodDelete}
	allowedOrigins := []string{"*"}
	maxBytes := int64(1048576)

	// health routes; no auth so load balancers and uptime probes can hit them
	r.Handle("/health", adaptHandler(
		handleHealth(l, h),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
	)).Methods(http.MethodGet)
	r.Handle("/health/db", adaptHandler(
		handleHealthDB(l, h),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
	)).Methods(http.MethodGet)
	r.Handle("/health/redis", adaptHandler(
		handleHealthRedis(l, h),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
	)).Methods(http.MethodGet)
	r.Handle("/health/connectors", adaptHandler(
		handleHealthConnectors(l, h),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
	)).Methods(http.MethodGet)

	r.Handle("/token", adaptHandler(
		handleIssueToken(l),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
		// no token required here
	)).Methods(http.MethodPost)

	// property routes
	r.Handle("/properties", adaptHandler(
		handlePropertiesList(l, q),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
	)).Methods(http.MethodGet)
	r.Handle("/properties/{propertyId}", adaptHandler(
		handlePropertyGet(l, q),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
	)).Methods(http.MethodGet)
	r.Handle("/properties", adaptHandler(
		handlePropertyPost(l, q),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
		mustAuth(fbc),
	)).Methods(http.MethodPost)
	r.Handle("/properties", adaptHandler(
		handlePropertyDelete(l, q),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
		mustAuth(fbc),
	)).Methods(http.MethodDelete)

	// worker routes
	r.Handle("/properties/claim-next", adaptHandler(
		handlePropertyClaimNext(l, p, q),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
		mustAuth(fbc),
	)).Methods(http.MethodPost)
	r.Handle("/properties/set-status", adaptHandler(
		handlePropertySetStatus(l, q),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
		mustAuth(fbc),
	)).Methods(http.MethodPost)

	// ml routes
	r.Handle("/ml/predictions/{propertyId}", adaptHandler(
		handleLatestPrediction(l, q),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
	)).Methods(http.MethodGet)
	r.Handle("/ml/predictions", adaptHandler(
		handlePredictionPost(l, q),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
		mustAuth(fbc),
	)).Methods(http.MethodPost)
	r.Handle("/ml/predict", adaptHandler(
		handlePredict(l, engine),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
	)).Methods(http.MethodPost)
	r.Handle("/ml/train", adaptHandler(
		handleTrain(l, engine),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
		mustAuth(fbc),
	)).Methods(http.MethodPost)

	// plot data routes
	r.Handle("/plot-data/price-distribution", adaptHandler(
		handlePlotDataPriceDistribution(l, q),
		apiMode(l, maxBytes, allowedHeaders, allowedMethods, allowedOrigins),
	)).Methods(http.MethodGet)

	return r
}
