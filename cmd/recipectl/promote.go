package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var demote bool

var promoteCmd = &cobra.Command{
	Use:   "promote <username>",
	Short: "Grant a user staff rights to manage categories and ingredients",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.Auth.SetStaff(cmd.Context(), args[0], !demote); err != nil {
			return fmt.Errorf("promote %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s staff=%t\n", args[0], !demote)
		return nil
	},
}

func init() {
	promoteCmd.Flags().BoolVar(&demote, "revoke", false, "remove staff rights instead")
	rootCmd.AddCommand(promoteCmd)
}
