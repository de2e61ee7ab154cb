// Command ballotctl is the operator tool for the ballot database: schema
// migration, catalog setup, tally integrity checks and reconciliation of
// ballots whose commit outcome was unknown.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/config"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/observability/logging"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
)

// openStore is replaced in tests.
var openStore = func(cfg config.Config) (*store.Store, error) {
	gdb, err := store.Open(store.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		return nil, err
	}
	return store.New(gdb), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ballotctl",
		Short:         "Operate the ballot database",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			slog.SetDefault(logging.NewLogger(logging.Config{
				ServiceName: "ballotctl",
				Environment: cfg.Environment,
				Level:       cfg.LogLevel,
				Output:      cmd.ErrOrStderr(),
			}))
		},
	}
	root.AddCommand(
		newMigrateCmd(),
		newCatalogCmd(),
		newTallyCmd(),
		newReconcileCmd(),
		newVoterCmd(),
	)
	return root
}

func storeFor(cmd *cobra.Command) (*store.Store, error) {
	st, err := openStore(config.Load())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := st.Ping(cmd.Context()); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return st, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := storeFor(cmd)
			if err != nil {
				return err
			}
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
