// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Query the gazetteer only",
	Long: `Looks a place name up in the configured gazetteer and prints the normalized
candidates, or the in-band error when the service is unavailable.

$ geoscope lookup Montevideo
{"results":[{"name":"Montevideo","country":"Uruguay","type":"city","extent":[...]}]}
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		gz, err := newGazetteer(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		res, err := gz.Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("encoding candidates: %w", err)
		}

		fmt.Println(string(out))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
