package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errTallyMismatch = errors.New("tally mismatch")

func newTallyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Inspect vote tallies",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Compare each candidate's vote_count with its vote rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storeFor(cmd)
			if err != nil {
				return err
			}
			mismatches, err := st.Ballots().TallyMismatches(cmd.Context())
			if err != nil {
				return err
			}
			if len(mismatches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "tallies consistent")
				return nil
			}
			if err := printJSON(cmd.OutOrStdout(), mismatches); err != nil {
				return err
			}
			return fmt.Errorf("%w: %d candidate(s)", errTallyMismatch, len(mismatches))
		},
	})
	return cmd
}
