/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/referenda/refclient/internal/cli"
	"github.com/spf13/cobra"
)

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Prints the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTerminal(cmd, func(c *cli.Client) error {
			u, ok := c.Session().User()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (%s)\n", u.Username, u.Email, u.Role)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
