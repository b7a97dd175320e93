package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the VaultConnect server.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vaultconnect",
		Short: "VaultConnect - account registration and session authentication",
		Long: `VaultConnect registers accounts, verifies passwords and issues
signed session tokens for the dashboard and CLI clients.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("VaultConnect Server\n")
			cmd.Printf("Version:    %s\n", Version)
			cmd.Printf("Build Date: %s\n", BuildDate)
			cmd.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}
