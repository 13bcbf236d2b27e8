// Command apctl is a small ops client for a running ausproperty server.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name: "apctl",
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
		},
		Commands: []*cli.Command{
			{
				Name:  "issue-token",
				Usage: "Exchange the server secret for a bearer token.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Email to embed in the token claims.",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "secret",
						Value:   os.Getenv("SERVER_SECRET_KEY"),
						Usage:   "Server secret key.",
					},
				},
				Action: issueToken,
			},
			{
				Name:  "health",
				Usage: "Print the aggregate health of the server.",
				Action: func(ctx *cli.Context) error {
					return doGet(ctx, "/health")
				},
			},
			{
				Name:  "create-property",
				Usage: "Create a property from a JSON file.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to a JSON property payload.",
						Required: true,
					},
				},
				Action: func(ctx *cli.Context) error {
					return doPostFile(ctx, "/properties", ctx.String("file"))
				},
			},
			{
				Name:  "train",
				Usage: "Train the pricing model from a JSON samples file.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to a JSON {properties, prices} payload.",
						Required: true,
					},
				},
				Action: func(ctx *cli.Context) error {
					return doPostFile(ctx, "/ml/train", ctx.String("file"))
				},
			},
			{
				Name:  "get-prediction",
				Usage: "Fetch the latest prediction for a property.",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "property-id",
						Aliases:  []string{"id"},
						Required: true,
					},
				},
				Action: func(ctx *cli.Context) error {
					return doGet(ctx, fmt.Sprintf("/ml/predictions/%d", ctx.Int("property-id")))
				},
			},
		}}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func issueToken(ctx *cli.Context) error {
	q := url.Values{}
	q.Set("email", ctx.String("email"))
	req, err := http.NewRequest(
		http.MethodPost,
		fmt.Sprintf("%s/token?%s", ctx.String("server-endpoint"), q.Encode()),
		nil,
	)
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", ctx.String("secret"))
	return doRequest(req)
}

func doGet(ctx *cli.Context, path string) error {
	req, err := http.NewRequest(
		http.MethodGet,
		ctx.String("server-endpoint")+path,
		nil,
	)
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+ctx.String("auth-token"))
	return doRequest(req)
}

func doPostFile(ctx *cli.Context, path, file string) error {
	b, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(
		http.MethodPost,
		ctx.String("server-endpoint")+path,
		bytes.NewReader(b),
	)
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+ctx.String("auth-token"))
	req.Header.Add("Content-Type", "application/json")
	return doRequest(req)
}

func doRequest(req *http.Request) error {
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", b)
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf(res.Status)
	}
	return nil
}
