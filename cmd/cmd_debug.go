// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jcodagnone/geoscope/resolver"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the extraction stage only",
	Long: `Reads one query per line and prints the query followed by the extracted
spatial record.

$ echo "hotels near the Eiffel Tower" | geoscope debug extract
hotels near the Eiffel Tower		{"original_query":"hotels near the Eiffel Tower","spatial":"Eiffel Tower","scale":"Local"}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}

		extractor, err := resolver.NewExtractor(engine, cfg.Resolver.StrictScale, logger)
		if err != nil {
			return err
		}

		input := os.Stdin
		if isatty.IsTerminal(input.Fd()) {
			fmt.Fprintln(os.Stderr, "Enter queries to analyze, one per line…")
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			query := scanner.Text()

			record, err := extractor.Extract(cmd.Context(), query)
			if err != nil {
				fmt.Printf("%s\t%q\n", query, err)

				continue
			}

			s, err := json.Marshal(record)
			if err != nil {
				return err
			}

			fmt.Printf("%s\t\t%s\n", query, s)
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

var debugPromptCmd = &cobra.Command{
	Use:   "prompt <query>",
	Short: "Print the extraction prompt without calling the engine",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		schema, err := resolver.SpatialRecordSchema(cfg.Resolver.StrictScale)
		if err != nil {
			return err
		}

		prompt, err := resolver.ExtractionPrompt(args[0], schema)
		if err != nil {
			return err
		}

		fmt.Print(prompt)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugExtractCmd)
	debugCmd.AddCommand(debugPromptCmd)
}
