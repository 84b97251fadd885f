/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/referenda/refclient/internal/cli"
	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forgets the session kept in local storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTerminal(cmd, func(c *cli.Client) error {
			page, err := c.Post(cmd.Context(), "/logout", nil)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), page)
		})
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
