package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bookingscore/internal/normalizer"
	"bookingscore/internal/tabular"
)

func scoreCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "score <file.csv>",
		Short: "Score every booking in a CSV or TSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			if format == "" {
				format = a.Config.Output.Format
			}

			// 1. Read input
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open input: %w", err)
			}
			defer f.Close()

			comma := ','
			if filepath.Ext(args[0]) == ".tsv" {
				comma = '\t'
			}

			batch, err := tabular.ReadDelimited(f, comma)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			// 2. Score
			res, err := a.Processor.Process(batch)
			if err != nil {
				reportFailure(cmd.ErrOrStderr(), err)

				return err
			}

			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "⚠️ ", w.String())
			}

			// 3. Write
			if output == "" {
				return render(cmd.OutOrStdout(), format, res)
			}

			if err := writeOutput(output, format, res); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "✅ Saved %d scored rows to: %s\n", len(res.Predictions), output)

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: table, csv or json (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write scored rows to this file instead of stdout")

	return cmd
}

// writeOutput renders res into a new file at path. A failed close is
// reported since the data may not have reached disk.
func writeOutput(path, format string, res *normalizer.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	if err := render(file, format, res); err != nil {
		file.Close()

		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}

func render(w io.Writer, format string, res *normalizer.Result) error {
	switch format {
	case "table":
		_, err := io.WriteString(w, tabular.RenderTable(res.Annotated))

		return err
	case "csv":
		return tabular.WriteCSV(w, res.Annotated)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(map[string]any{
			"columns":  res.Annotated.Columns(),
			"rows":     tabular.JSONRows(res.Annotated),
			"warnings": res.Warnings,
		})
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// reportFailure lists every missing field or bad cell so the whole file can
// be fixed in one pass.
func reportFailure(w io.Writer, err error) {
	var (
		missing *normalizer.MissingFieldsError
		encErr  *normalizer.EncodingError
	)

	switch {
	case errors.As(err, &missing):
		fmt.Fprintln(w, "Missing required fields:")

		for _, f := range missing.Fields {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	case errors.As(err, &encErr):
		fmt.Fprintf(w, "Invalid cells (%d rows affected):\n", len(encErr.Rows()))

		for _, c := range encErr.Cells {
			fmt.Fprintf(w, "  - %s\n", c.Error())
		}
	}
}
