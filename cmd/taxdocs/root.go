package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxdocs",
		Short: "Taxdocs is the document transfer layer of the tax office portal",
	}

	cmd.Version = version

	// Configuration flags (-a, -d, -sftp-host and friends) are parsed by the
	// config package itself, so unknown flags must pass through cobra.
	cmd.FParseErrWhitelist = cobra.FParseErrWhitelist{UnknownFlags: true}

	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newAuditOrphansCmd(),
	)

	return cmd
}
