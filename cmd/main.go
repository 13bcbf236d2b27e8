package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ausproperty/ausproperty/server"
	"github.com/ausproperty/ausproperty/server/db"
	"github.com/ausproperty/ausproperty/worker"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:  "run-http-server",
				Usage: "Run the HTTP server on the specified port.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "listen-port",
						Aliases: []string{"port", "p"},
						Value:   "8080",
						Usage:   "Port to listen on.",
					},
					&cli.StringFlag{
						Name:     "db-host",
						Aliases:  []string{"db", "d"},
						Value:    os.Getenv("DATABASE_URL"),
						Usage:    "Database endpoint.",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "env",
						Aliases: []string{"e"},
						Value:   envOr("APP_ENV", "dev"),
						Usage:   "Deployment environment reported by the health endpoint.",
					},
				},
				Action: func(ctx *cli.Context) error {
					return serve_http(ctx)
				},
			},
			{
				Name:  "run-prediction-worker",
				Usage: "Run a price prediction refresh worker.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "server-endpoint",
						Aliases: []string{"server", "s"},
						Value:   os.Getenv("SERVER_ENDPOINT"),
						Usage:   "Server endpoint.",
					},
					&cli.StringFlag{
						Name:    "auth-token",
						Aliases: []string{"token", "t"},
						Value:   os.Getenv("AUTH_TOKEN"),
						Usage:   "Auth token for server requests.",
					},
					&cli.DurationFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Value:   time.Minute,
						Usage:   "Minimum interval between running tasks.",
					},
				},
				Action: func(ctx *cli.Context) error {
					return run_prediction_worker(ctx)
				},
			},
			{
				Name:  "run-ingest-worker",
				Usage: "Run a listing ingest worker against a connector.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "server-endpoint",
						Aliases: []string{"server", "s"},
						Value:   os.Getenv("SERVER_ENDPOINT"),
						Usage:   "Server endpoint.",
					},
					&cli.StringFlag{
						Name:    "auth-token",
						Aliases: []string{"token", "t"},
						Value:   os.Getenv("AUTH_TOKEN"),
						Usage:   "Auth token for server requests.",
					},
					&cli.StringFlag{
						Name:  "connector",
						Value: "domain",
						Usage: "Connector to ingest from.",
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Search query to ingest listings for.",
						Required: true,
					},
					&cli.DurationFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Value:   time.Hour,
						Usage:   "Minimum interval between running tasks.",
					},
				},
				Action: func(ctx *cli.Context) error {
					return run_ingest_worker(ctx)
				},
			},
			{
				Name:  "train-model",
				Usage: "Fit the pricing model from stored sale prices.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db-host",
						Aliases:  []string{"db", "d"},
						Value:    os.Getenv("DATABASE_URL"),
						Usage:    "Database endpoint.",
						Required: true,
					},
				},
				Action: func(ctx *cli.Context) error {
					return train_model(ctx)
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply any unapplied database migrations.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db-host",
						Aliases:  []string{"db", "d"},
						Value:    os.Getenv("DATABASE_URL"),
						Usage:    "Database endpoint.",
						Required: true,
					},
				},
				Action: func(ctx *cli.Context) error {
					return migrate(ctx)
				},
			},
		}}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func serve_http(ctx *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	// the prediction cache and the health monitor share one client
	rdb := getRedisClient()
	engine, err := getEngine(ctx, logger, rdb)
	if err != nil {
		return err
	}
	conns, err := getConnectorRegistry()
	if err != nil {
		return err
	}
	return server.RunHTTPServer(
		ctx.Context,
		logger,
		ctx.String("db-host"),
		engine,
		conns,
		rdb,
		ctx.String("env"),
		ctx.String("listen-port"),
	)
}

func run_prediction_worker(ctx *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return worker.RunWorkerFunc(
		ctx.Context,
		logger,
		ctx.Duration("interval"),
		worker.MakePredictionWorkerFunc(
			ctx.String("server-endpoint"),
			ctx.String("auth-token"),
		),
	)
}

func run_ingest_worker(ctx *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	conns, err := getConnectorRegistry()
	if err != nil {
		return err
	}
	name := ctx.String("connector")
	c, ok := conns.Get(name)
	if !ok {
		return cli.Exit("unknown connector: "+name, 1)
	}
	return worker.RunWorkerFunc(
		ctx.Context,
		logger,
		ctx.Duration("interval"),
		worker.MakeIngestWorkerFunc(
			ctx.String("server-endpoint"),
			ctx.String("auth-token"),
			name,
			c,
			ctx.String("query"),
		),
	)
}

func migrate(ctx *cli.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	pool, err := getConnPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	return db.RunMigrations(ctx.Context, logger, pool)
}
