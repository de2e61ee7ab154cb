package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/events"
	impl "github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/service/impl"
)

func newVoterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voter",
		Short: "Administrative voter operations",
	}
	var voterID, operator, reason string
	reset := &cobra.Command{
		Use:   "reset-voted",
		Short: "Clear a voter's voted flag after reconciliation",
		Long: "Clear a voter's voted flag so they can submit again. Use only after " +
			"confirming from issuance_log that no ballot was recorded for them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(voterID)
			if err != nil {
				return fmt.Errorf("invalid --voter-id: %w", err)
			}
			st, err := storeFor(cmd)
			if err != nil {
				return err
			}
			if err := impl.NewVoterRegistry(st, events.Nop{}).ResetVoted(cmd.Context(), id, operator, reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "voted flag cleared for %s\n", id)
			return nil
		},
	}
	reset.Flags().StringVar(&voterID, "voter-id", "", "voter id")
	reset.Flags().StringVar(&operator, "operator", "", "name of the operator making the change")
	reset.Flags().StringVar(&reason, "reason", "", "why the flag is being cleared")
	for _, f := range []string{"voter-id", "operator", "reason"} {
		_ = reset.MarkFlagRequired(f)
	}
	cmd.AddCommand(reset)
	return cmd
}
