package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bookingscore/internal/client"
	"bookingscore/internal/logger"
)

func remoteCmd() *cobra.Command {
	var (
		endpoint string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "remote <file.csv>...",
		Short: "Score files on a running bookingscore service",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log := logger.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

			c, err := client.New(endpoint, log)
			if err != nil {
				return err
			}

			// 1. Make sure the service is up before sending anything
			h, err := c.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("service unavailable: %w", err)
			}

			log.Info("connected", "endpoint", endpoint, "model", h.Model, "schema_version", h.SchemaVersion)

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			// 2. Upload and save
			failed := 0

			for _, r := range c.UploadFiles(cmd.Context(), args) {
				if r.Err != nil {
					failed++

					fmt.Fprintf(cmd.ErrOrStderr(), "❌ %s: %v\n", r.Path, r.Err)

					continue
				}

				dest := filepath.Join(outDir, filepath.Base(r.Download.Filename))
				if err := os.WriteFile(dest, r.Download.Body, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", dest, err)
				}

				fmt.Fprintf(cmd.OutOrStdout(), "✅ %s -> %s (%d warnings)\n", r.Path, dest, r.Download.Warnings)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&endpoint, "url", "http://localhost:8080", "service base URL")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for scored files")

	return cmd
}
