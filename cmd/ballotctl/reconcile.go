package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
)

type reconcileEntry struct {
	VoterID   string          `json:"voterId"`
	At        time.Time       `json:"at"`
	IP        string          `json:"ip,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	VotedNow  bool            `json:"votedNow"`
	Issuances int64           `json:"issuances"`
}

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Review ballots whose commit outcome was unknown",
	}
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List voters flagged for reconciliation with their current state",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storeFor(cmd)
			if err != nil {
				return err
			}
			rows, err := st.Audit().ListByAction(cmd.Context(), domain.AuditReconciliationRequired, limit)
			if err != nil {
				return err
			}
			out := make([]reconcileEntry, 0, len(rows))
			for _, row := range rows {
				e := reconcileEntry{At: row.CreatedAt, IP: row.IP, Detail: row.Metadata}
				if row.VoterID != nil {
					e.VoterID = row.VoterID.String()
					if v, err := st.Voters().GetByID(cmd.Context(), *row.VoterID); err == nil {
						e.VotedNow = v.Voted
					}
					if n, err := st.Ballots().CountIssuances(cmd.Context(), *row.VoterID); err == nil {
						e.Issuances = n
					}
				}
				out = append(out, e)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	list.Flags().IntVar(&limit, "limit", 100, "maximum rows")
	cmd.AddCommand(list)
	return cmd
}
