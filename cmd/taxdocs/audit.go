package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taxdesk/taxdocs/internal/server"
	"github.com/taxdesk/taxdocs/internal/server/config"
)

func newAuditOrphansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit-orphans",
		Short: "List stored files the database has no record of",
		Long: "Walks the active storage backend and prints every storage pointer " +
			"that has no matching document record. Orphans appear when an upload " +
			"succeeds but its record write fails, or after a delete that could not " +
			"remove the bytes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()

			app, err := server.NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			orphans, err := app.Documents().AuditOrphans(cmd.Context())
			if err != nil {
				return err
			}

			if len(orphans) == 0 {
				fmt.Println("no orphaned files")
				return nil
			}

			for _, pointer := range orphans {
				fmt.Println(pointer)
			}
			fmt.Printf("%d orphaned file(s)\n", len(orphans))
			return nil
		},
	}
}
