package main

import (
	"github.com/spf13/cobra"

	"github.com/taxdesk/taxdocs/internal/server"
	"github.com/taxdesk/taxdocs/internal/server/config"
	"github.com/taxdesk/taxdocs/internal/server/repositories/repomanager"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()

			db, err := server.OpenDB(cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			return repomanager.NewPostgresRepositoryManager().RunMigrations(cmd.Context(), db)
		},
	}
}
