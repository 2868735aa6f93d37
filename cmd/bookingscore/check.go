package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookingscore/internal/app"
	"bookingscore/internal/formatter"
)

func checkCmd() *cobra.Command {
	var pin bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that the model was trained on the configured schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pin {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}

				fp, err := app.PinModel(cfg.Schema.Path, cfg.Model.Path)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "📌 Pinned %s to schema fingerprint %s\n", cfg.Model.Path, fp)
			}

			a, err := loadApp()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ %s is compatible with schema %s v%d\n", a.Model.Name(), a.Schema.Name, a.Schema.Version)
			fmt.Fprintf(out, "Fingerprint: %s\n\n", a.Schema.Fingerprint())

			rows := make([][]string, 0, len(a.Schema.Fields))
			for _, f := range a.Schema.Fields {
				vocab := ""
				if f.Vocabulary != nil {
					vocab = fmt.Sprintf("%d labels", f.Vocabulary.Len())
				}

				rows = append(rows, []string{f.Name, string(f.Kind), vocab})
			}

			fmt.Fprint(out, formatter.Table([]string{"field", "kind", "vocabulary"}, rows))

			return nil
		},
	}

	cmd.Flags().BoolVar(&pin, "pin", false, "write the schema fingerprint into the model artifact first")

	return cmd
}
