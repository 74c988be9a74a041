package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the persisted calculation history, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			if clearAll {
				a.log.Clear()
				fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
				return nil
			}

			for _, rec := range a.log.Records() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", rec.Timestamp.Local().Format(time.DateTime), rec.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete every history record")
	return cmd
}
