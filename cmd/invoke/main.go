// cmd/invoke runs bucket functions locally against an event, the way the
// serverless runtime would, and prints the response envelopes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/bucket-gateway/internal/config"
	"github.com/andresuchdata/bucket-gateway/internal/function"
	"github.com/andresuchdata/bucket-gateway/internal/storage"
	"github.com/andresuchdata/bucket-gateway/pkg/logger"
)

type ctxKey struct{}

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "invoke",
		Usage: "Invoke bucket functions locally",

		// Object keys may contain commas.
		DisableSliceFlagSeparator: true,

		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the available functions",
				Action: listFunctions,
			},
			{
				Name:  "run",
				Usage: "Invoke a function with one or more events",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "function",
						Aliases:  []string{"f"},
						Usage:    "Function name (see the list command)",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:    "event",
						Aliases: []string{"e"},
						Usage:   "Event JSON file with pathParameters/queryStringParameters; '-' reads stdin",
					},
					&cli.StringSliceFlag{
						Name:  "path",
						Usage: "Path parameter as name=value",
					},
					&cli.StringSliceFlag{
						Name:  "query",
						Usage: "Query string parameter as name=value",
					},
					&cli.StringFlag{
						Name:    "bucket",
						Usage:   "Target bucket",
						EnvVars: []string{config.BucketEnvKey},
					},
				},
				Before: initFunctions,
				Action: runFunction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("invoke failed")
	}
}

func initFunctions(c *cli.Context) error {
	cfg := config.Load()
	logger.SetFormat(cfg.Log.Format)
	logger.SetLevel(cfg.Log.Level)

	store, err := storage.New(c.Context, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage client: %w", err)
	}

	fns := function.New(store, config.StaticBucket(strings.TrimSpace(c.String("bucket"))), logger.Log)
	c.Context = context.WithValue(c.Context, ctxKey{}, fns)
	return nil
}

func listFunctions(c *cli.Context) error {
	for _, name := range functionNames() {
		fmt.Fprintln(c.App.Writer, name)
	}
	return nil
}

func functionNames() []string {
	names := make([]string, 0, 4)
	for name := range (&function.Functions{}).Handlers() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runFunction(c *cli.Context) error {
	fns, ok := c.Context.Value(ctxKey{}).(*function.Functions)
	if !ok {
		return fmt.Errorf("functions not initialized")
	}
	handler, ok := fns.Handlers()[c.String("function")]
	if !ok {
		return fmt.Errorf("unknown function %q, expected one of %s", c.String("function"), strings.Join(functionNames(), ", "))
	}

	events, err := loadEvents(c.StringSlice("event"), c.App.Reader)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		req, err := requestFromFlags(c.StringSlice("path"), c.StringSlice("query"))
		if err != nil {
			return err
		}
		events = []function.Request{req}
	}

	responses := invokeAll(c.Context, handler, events)

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	for _, resp := range responses {
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return nil
}

// invokeAll runs every event concurrently. Results keep the input order.
func invokeAll(ctx context.Context, handler function.Handler, events []function.Request) []function.Response {
	responses := make([]function.Response, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, event := range events {
		g.Go(func() error {
			responses[i] = handler(gctx, event)
			return nil
		})
	}
	_ = g.Wait()
	return responses
}

func loadEvents(paths []string, stdin io.Reader) ([]function.Request, error) {
	events := make([]function.Request, 0, len(paths))
	for _, path := range paths {
		var (
			raw []byte
			err error
		)
		if path == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("read event %s: %w", path, err)
		}

		var req function.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", path, err)
		}
		events = append(events, req)
	}
	return events, nil
}

func requestFromFlags(path, query []string) (function.Request, error) {
	var (
		req function.Request
		err error
	)
	if req.PathParameters, err = parsePairs(path); err != nil {
		return req, err
	}
	if req.QueryStringParameters, err = parsePairs(query); err != nil {
		return req, err
	}
	return req, nil
}

func parsePairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", pair)
		}
		out[name] = value
	}
	return out, nil
}
