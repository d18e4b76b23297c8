// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/geoscope/server"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	Host string
	Port int
}

var serveOpts = &serveOptions{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveOpts.Host
		}

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serveOpts.Port
		}

		if cfg.Log.Mode == "prod" {
			gin.SetMode(gin.ReleaseMode)
		}

		r, err := newResolver(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		return server.NewServer(r, logger).Run(cmd.Context(), cfg.Server.Addr())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOpts.Host, "host", "localhost", "Interface to listen on")
	serveCmd.Flags().IntVar(&serveOpts.Port, "port", 8080, "Port to listen on")
}
