package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookingscore/internal/tabular"
)

func recordCmd() *cobra.Command {
	var pairs []string

	cmd := &cobra.Command{
		Use:     "record --set field=value ...",
		Short:   "Score a single manually entered booking",
		Example: `  bookingscore record --set hotel="City Hotel" --set lead_time=45 --set adults=2 ...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}

			batch, err := tabular.RecordFromPairs(pairs)
			if err != nil {
				return err
			}

			res, err := a.Processor.Process(batch)
			if err != nil {
				reportFailure(cmd.ErrOrStderr(), err)

				return err
			}

			for _, w := range res.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "⚠️ ", w.String())
			}

			label := res.Annotated.Labels[0]
			if res.Annotated.Confidence != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Booking is likely to be %s (confidence %s)\n",
					label, tabular.FormatConfidence(res.Annotated.Confidence[0]))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Booking is likely to be %s\n", label)
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVar(&pairs, "set", nil, "field=value pair (repeatable)")
	_ = cmd.MarkFlagRequired("set")

	return cmd
}
