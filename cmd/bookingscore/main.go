// Package main provides the bookingscore command-line tool for scoring hotel
// bookings with a pre-trained cancellation classifier.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bookingscore/internal/app"
	"bookingscore/internal/config"
)

var (
	cfgFile  string
	logLevel string
	rootCmd  = &cobra.Command{
		Use:   "bookingscore",
		Short: "🏨 Hotel booking cancellation scoring",
		Long: `bookingscore validates booking records against the feature schema a
classifier was trained on, encodes them, and labels each booking as likely
to be canceled or not.`,
		SilenceUsage: true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	// Add commands
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(recordCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(remoteCmd())
}

func main() {
	// Set up signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when one is given and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()

	if cfgFile != "" {
		loaded, err := config.LoadConfig(cfgFile)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel

		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadApp loads config, schema and model. Logs go to stderr so stdout stays
// clean for scored output.
func loadApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	return app.Load(cfg, os.Stderr)
}
