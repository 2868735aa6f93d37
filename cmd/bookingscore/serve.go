package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"bookingscore/internal/server"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP scoring service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			if addr != "" {
				a.Config.Server.Addr = addr
			}

			gin.SetMode(gin.ReleaseMode)

			return server.New(a).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}
