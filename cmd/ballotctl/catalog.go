package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage positions and candidates",
	}
	cmd.AddCommand(newAddPositionCmd(), newAddCandidateCmd(), newListCatalogCmd())
	return cmd
}

func newAddPositionCmd() *cobra.Command {
	var (
		name     string
		voteType string
		maxSel   int
	)
	cmd := &cobra.Command{
		Use:   "add-position",
		Short: "Add a position to the ballot",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &domain.Position{Name: name, VoteType: domain.VoteType(voteType), MaxSelections: maxSel}
			if !p.VoteType.Valid() {
				return fmt.Errorf("vote type must be %q or %q", domain.VoteTypeSingle, domain.VoteTypeMultiple)
			}
			if p.VoteType == domain.VoteTypeSingle {
				p.MaxSelections = 1
			}
			if p.MaxSelections < 1 {
				return fmt.Errorf("max selections must be at least 1")
			}
			st, err := storeFor(cmd)
			if err != nil {
				return err
			}
			if err := st.Catalog().CreatePosition(cmd.Context(), p); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "position name")
	cmd.Flags().StringVar(&voteType, "type", string(domain.VoteTypeSingle), "single or multiple")
	cmd.Flags().IntVar(&maxSel, "max", 1, "maximum selections for a multiple position")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newAddCandidateCmd() *cobra.Command {
	var name, position string
	cmd := &cobra.Command{
		Use:   "add-candidate",
		Short: "Add a candidate to an existing position",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storeFor(cmd)
			if err != nil {
				return err
			}
			positions, err := st.Catalog().ListPositions(cmd.Context())
			if err != nil {
				return err
			}
			found := false
			for _, p := range positions {
				if p.Name == position {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("unknown position %q", position)
			}
			c := &domain.Candidate{Name: name, Position: position}
			if err := st.Catalog().CreateCandidate(cmd.Context(), c); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "candidate name")
	cmd.Flags().StringVar(&position, "position", "", "position the candidate runs for")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("position")
	return cmd
}

func newListCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print positions and candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storeFor(cmd)
			if err != nil {
				return err
			}
			cat, err := st.Catalog().Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"positions":  cat.Positions(),
				"candidates": cat.Candidates(),
			})
		},
	}
}
