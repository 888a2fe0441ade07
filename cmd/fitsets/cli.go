package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/fitscan"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/reconcile"
	"github.com/strukturantcoder/gymdagbokense-sub002/internal/signer"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "fitsets",
		Usage:   "Offline tools for device activity files",
		Version: Version,
		Commands: []*cli.Command{
			scanCmd(),
			inspectCmd(),
			signCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func fileFlag() cli.Flag {
	return &cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Activity file path, - for stdin"}
}

func scanCmd() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Extract strength sets and show the exercise log entries they would produce",
		Flags: []cli.Flag{
			fileFlag(),
			&cli.BoolFlag{Name: "json", Usage: "Print entries as JSON"},
			&cli.BoolFlag{Name: "sets", Usage: "Include every accepted window with its byte offset"},
		},
		Action: func(c *cli.Context) error {
			data, err := readFile(c, c.String("file"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			extraction := fitscan.Scan(data)
			entries := reconcile.BuildEntries(domain.ReconcileInput{}, extraction, time.Now().UTC())

			if c.Bool("json") {
				out := scanOutput{Exercises: make([]exerciseOutput, 0, len(entries))}
				for _, e := range entries {
					out.Exercises = append(out.Exercises, exerciseOutput{
						ExerciseName: e.ExerciseName,
						Sets:         e.SetsCompleted,
						Reps:         e.Reps(),
						Weight:       e.Weights(),
						WeightKg:     e.WeightKg,
					})
				}
				if c.Bool("sets") {
					out.Sets = extraction.Sets
				}
				return outputJSON(c.App.Writer, out)
			}

			w := c.App.Writer
			if len(entries) == 0 {
				fmt.Fprintln(w, reconcile.MessageNoData)
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(w, "%s: %d sets, reps %s, weights %s kg\n", e.ExerciseName, e.SetsCompleted, e.RepsCompleted, joinWeights(e.Weights()))
			}
			if c.Bool("sets") {
				for _, s := range extraction.Sets {
					fmt.Fprintf(w, "  offset %d: category %d, %d reps, %.1f kg\n", s.Offset, s.Category, s.Reps, s.WeightKg)
				}
			}
			return nil
		},
	}
}

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Validate the container header and CRC and print the file id",
		Flags: []cli.Flag{fileFlag()},
		Action: func(c *cli.Context) error {
			data, err := readFile(c, c.String("file"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return outputJSON(c.App.Writer, fitscan.Inspect(data))
		},
	}
}

func signCmd() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "Compute the OAuth 1.0a signature of a platform request",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "method", Value: "GET", Usage: "HTTP method"},
			&cli.StringFlag{Name: "url", Required: true, Usage: "Request URL including query"},
			&cli.StringFlag{Name: "consumer-key", EnvVars: []string{"PLATFORM_CONSUMER_KEY"}, Required: true},
			&cli.StringFlag{Name: "consumer-secret", EnvVars: []string{"PLATFORM_CONSUMER_SECRET"}, Required: true},
			&cli.StringFlag{Name: "token", Required: true, Usage: "User access token"},
			&cli.StringFlag{Name: "token-secret", Usage: "User token secret"},
			&cli.Int64Flag{Name: "timestamp", Usage: "Unix timestamp (default now)"},
			&cli.StringFlag{Name: "nonce", Usage: "Nonce (default random)"},
		},
		Action: func(c *cli.Context) error {
			p := signer.Params{
				Method:         strings.ToUpper(c.String("method")),
				URL:            c.String("url"),
				ConsumerKey:    c.String("consumer-key"),
				ConsumerSecret: c.String("consumer-secret"),
				AccessToken:    c.String("token"),
				TokenSecret:    c.String("token-secret"),
				Timestamp:      c.Int64("timestamp"),
				Nonce:          c.String("nonce"),
			}
			if p.Timestamp == 0 {
				p.Timestamp = time.Now().Unix()
			}
			if p.Nonce == "" {
				p.Nonce = strconv.FormatInt(time.Now().UnixNano(), 36)
			}

			base, err := signer.BaseString(p)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			signature, err := signer.Sign(p)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return outputJSON(c.App.Writer, signOutput{
				BaseString:    base,
				Signature:     signature,
				Authorization: signer.AuthorizationHeader(p, signature),
			})
		},
	}
}

type exerciseOutput struct {
	ExerciseName string    `json:"exerciseName"`
	Sets         int       `json:"sets"`
	Reps         []int     `json:"reps"`
	Weight       []float64 `json:"weight"`
	WeightKg     *float64  `json:"weightKg"`
}

type scanOutput struct {
	Exercises []exerciseOutput      `json:"exercises"`
	Sets      []domain.ExtractedSet `json:"sets,omitempty"`
}

type signOutput struct {
	BaseString    string `json:"baseString"`
	Signature     string `json:"signature"`
	Authorization string `json:"authorization"`
}

func readFile(c *cli.Context, path string) ([]byte, error) {
	if path == "-" {
		reader := c.App.Reader
		if reader == nil {
			reader = os.Stdin
		}
		return io.ReadAll(reader)
	}
	return os.ReadFile(path)
}

func joinWeights(weights []float64) string {
	parts := make([]string, len(weights))
	for i, w := range weights {
		parts[i] = strconv.FormatFloat(w, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
