package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"civic/internal/platform/logger"
	"civic/internal/platform/postgres"
)

func migrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.Database.URL == "" {
				return errNoDatabase
			}
			ctx := cmd.Context()
			db, err := postgres.Open(ctx, e.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := postgres.Migrate(ctx, db, logger.NewWithWriter(os.Stderr, e.cfg.LogLevel))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "schema up to date")
				return nil
			}
			for _, version := range applied {
				fmt.Fprintln(out, "applied", version)
			}
			return nil
		},
	}
}
