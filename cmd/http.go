package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ausproperty/ausproperty/connectors"
	"github.com/ausproperty/ausproperty/ml"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

func getConnPool(ctx *cli.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx.Context, ctx.String("db-host"))
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx.Context); err != nil {
		return nil, err
	}
	return pool, nil
}

// getRedisClient builds a redis client from the environment. Supported
// variables are REDIS_ADDR (or REDIS_HOST/REDIS_PORT), REDIS_PASSWORD,
// REDIS_DB, and REDIS_TLS. Returns nil when no server answers; callers
// degrade gracefully by disabling caching.
func getRedisClient() *redis.Client {
	host := os.Getenv("REDIS_HOST")
	port := os.Getenv("REDIS_PORT")
	addr := os.Getenv("REDIS_ADDR")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	dbNum := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if n, err := strconv.Atoi(dbStr); err == nil {
			dbNum = n
		}
	}
	var tlsConf *tls.Config
	if tlsEnv := os.Getenv("REDIS_TLS"); strings.EqualFold(tlsEnv, "true") || tlsEnv == "1" {
		tlsConf = &tls.Config{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        dbNum,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

// getEngine wires the prediction engine: the S3 model store when a bucket is
// configured, the in-memory store otherwise, plus the redis prediction
// cache. Any persisted model artifact is loaded in before serving.
func getEngine(ctx *cli.Context, logger *slog.Logger, rdb *redis.Client) (*ml.Engine, error) {
	var store ml.Store
	if bucket, err := ml.GetModelBucket(); err == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx.Context)
		if err != nil {
			return nil, err
		}
		store = &ml.S3Store{Client: s3.NewFromConfig(cfg), Bucket: bucket}
	} else {
		logger.Warn("ml model bucket not set, model artifacts will not survive restarts")
		store = &ml.MemoryStore{}
	}
	engine := ml.NewEngine(logger, store, ml.NewPredictionCache(rdb))
	if err := engine.LoadModel(ctx.Context); err != nil {
		return nil, err
	}
	return engine, nil
}

func getConnectorRegistry() (*connectors.Registry, error) {
	baseURL := envOr("DOMAIN_BASE_URL", "https://api.domain.com.au/")
	dc, err := connectors.NewDomainClient(baseURL, "ausproperty-ingest", nil)
	if err != nil {
		return nil, err
	}
	r := connectors.NewRegistry()
	r.Register("domain", dc)
	return r, nil
}
