// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/jcodagnone/geoscope/resolver"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type resolveOptions struct {
	Report   bool
	Input    string
	MaxProcs int
}

var resolveOpts = &resolveOptions{}

var resolveCmd = &cobra.Command{
	Use:   "resolve <query>",
	Short: "Resolve the place a query refers to",
	Long: `Runs extraction, gazetteer lookup and disambiguation for a query and prints
the chosen candidate as JSON.

$ geoscope resolve "hotels near the Eiffel Tower"
{"result":"{\"name\": \"Eiffel Tower\", \"country\": \"France\", \"type\": \"house\"}"}

With --input, every non-empty line of the file is resolved independently and
one JSON line is printed per query, in input order.
`,
	Args: func(cmd *cobra.Command, args []string) error {
		if resolveOpts.Input != "" {
			return cobra.NoArgs(cmd, args)
		}

		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		r, err := newResolver(ctx, cfg, logger)
		if err != nil {
			return err
		}

		if resolveOpts.Input == "" {
			out, err := resolveOne(ctx, r, args[0], resolveOpts.Report)
			if err != nil {
				return err
			}

			fmt.Println(string(out))

			return nil
		}

		queries, err := readQueries(resolveOpts.Input)
		if err != nil {
			return err
		}

		return resolveBatch(ctx, r, queries, resolveOpts, os.Stdout)
	},
}

// resolveOne runs a single query and renders the answer, or the whole
// resolution when report is set.
func resolveOne(ctx context.Context, r *resolver.Resolver, query string, report bool) ([]byte, error) {
	res, err := r.Run(ctx, query)
	if err != nil {
		return nil, err
	}

	if report {
		return json.Marshal(res)
	}

	return json.Marshal(res.Answer)
}

func readQueries(path string) ([]string, error) {
	var input io.Reader = os.Stdin

	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()

		input = f
	}

	var queries []string

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			queries = append(queries, q)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	return queries, nil
}

type batchFailure struct {
	Query string `json:"query"`
	Error string `json:"error"`
}

// resolveBatch resolves queries concurrently. Each query is independent: a
// failure is logged, reported on its own output line and counted.
func resolveBatch(ctx context.Context, r *resolver.Resolver, queries []string, opts *resolveOptions, w io.Writer) error {
	n := len(queries)

	maxProcs := opts.MaxProcs
	if maxProcs <= 0 {
		maxProcs = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Resolving"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	lines := make([][]byte, n)
	failed := make([]bool, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxProcs)

	for i, q := range queries {
		g.Go(func() error {
			out, err := resolveOne(gctx, r, q, opts.Report)
			if err != nil {
				log.Printf("Resolution failed for %q - %s", q, err)

				failed[i] = true
				out, err = json.Marshal(batchFailure{Query: q, Error: err.Error()})
				if err != nil {
					return err
				}
			}

			lines[i] = out

			if bar != nil {
				if err := bar.Add(1); err != nil {
					log.Printf("Updating progress bar: %s", err)
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	failures := 0

	for i, line := range lines {
		if failed[i] {
			failures++
		}

		if _, err := fmt.Fprintln(w, string(line)); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}

	log.Printf("Resolved %d queries, %d successful and %d failed.", n, n-failures, failures)

	if failures > 0 {
		return errors.New("some queries could not be resolved")
	}

	return nil
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolVar(&resolveOpts.Report, "report", false, "Print every intermediate value instead of the answer only")
	resolveCmd.Flags().StringVar(&resolveOpts.Input, "input", "", "Resolve one query per line of this file ('-' for stdin)")
	resolveCmd.Flags().IntVar(&resolveOpts.MaxProcs, "procs", 0, "Concurrent resolutions for --input (defaults to the number of CPUs)")
}
