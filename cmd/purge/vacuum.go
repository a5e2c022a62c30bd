package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bamsammich/purge/internal/sqlitevac"
)

func newVacuumCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "vacuum <db>...",
		Short: "Compact SQLite databases so deleted rows leave no residue",
		Long: `vacuum enables secure_delete and rebuilds each SQLite database, which
overwrites the pages that held deleted rows.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			closeLog, err := setupLogging(*g)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			failed := 0
			for _, db := range args {
				if err := sqlitevac.Vacuum(ctx, db); err != nil {
					slog.Error("vacuum failed", "db", db, "error", err)
					failed++
					continue
				}
			}
			switch {
			case failed == 0:
				return nil
			case failed < len(args):
				return &exitError{code: 1}
			default:
				return &exitError{code: 2}
			}
		},
	}
}
