package main

import (
	"github.com/spf13/cobra"

	"github.com/taxdesk/taxdocs/internal/server"
	"github.com/taxdesk/taxdocs/internal/server/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the document transfer HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()

			app, err := server.NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			app.Run(cmd.Context())
			return nil
		},
	}
}
