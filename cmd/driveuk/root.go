package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the DriveUK CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "driveuk",
		Short: "DriveUK - driving school platform services",
		Long: `DriveUK runs the authentication and session service for the driving
school platform: registration, login, email verification, password
resets, and instructor approval.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}
