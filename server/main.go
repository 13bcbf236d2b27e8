package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"github.com/ausproperty/ausproperty/connectors"
	"github.com/ausproperty/ausproperty/ml"
	"github.com/ausproperty/ausproperty/server/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func getConnPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}
	if err = pool.Ping(ctx); err != nil {
		return nil, err
	}
	return pool, nil
}

func getFirebaseAuthClient(ctx context.Context) (*auth.Client, error) {
	app, err := firebase.NewApp(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	return app.Auth(ctx)
}

// RunHTTPServer connects to the database and serves the API until the
// listener fails. The redis client may be nil; prediction caching and the
// redis health check degrade accordingly.
func RunHTTPServer(
	ctx context.Context,
	l *slog.Logger,
	dbHost string,
	engine *ml.Engine,
	conns *connectors.Registry,
	rdb *redis.Client,
	env string,
	port string,
) error {
	pool, err := getConnPool(ctx, dbHost)
	if err != nil {
		return fmt.Errorf("could not connect to db: %s", err)
	}
	fbc, err := getFirebaseAuthClient(ctx)
	if err != nil {
		// auth falls back to bearer tokens only
		l.Warn("firebase auth unavailable", "error", err.Error())
	}
	q := db.New(pool)
	h := newHealthMonitor(env, pool, rdb, conns)
	root := getRootHandler(l, fbc, pool, q, engine, h)
	l.Info("listening", "port", port)
	return http.ListenAndServe(fmt.Sprintf(":%s", port), root)
}
