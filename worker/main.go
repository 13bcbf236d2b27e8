// Package worker contains the periodic background workers: the prediction
// worker that keeps property price predictions fresh, and the ingest worker
// that pulls listings in from the external connectors. Workers talk to the
// server over its HTTP API rather than the database directly.
package worker

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// RunWorkerFunc is a general purpose entry point for running cancelable
// periodic worker functions on some interval. Callers simply supply an interval
// and their worker function.
func RunWorkerFunc(
	ctx context.Context,
	logger *slog.Logger,
	interval time.Duration,
	f func(context.Context, *slog.Logger),
) error {
	lastRun := time.Now()
	for {
		delay := time.NewTimer(lastRun.Truncate(interval).Add(interval).Sub(lastRun))
		select {
		case <-delay.C:
			f(ctx, logger)
		case <-ctx.Done():
			logger.Info("worker context cancelled, return context err")
			if !delay.Stop() {
				<-delay.C
			}
			return ctx.Err()
		}
		lastRun = time.Now()
	}
}

// Return the default headers to use to make queries against the server
func getDefaultServerHeaders(authToken string) http.Header {
	h := http.Header{}
	h.Add("Authorization", "Bearer "+authToken)
	h.Add("Content-Type", "application/json")
	return h
}
