/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"net/http"
	"strings"

	"github.com/referenda/refclient/internal/cli"
	"github.com/spf13/cobra"
)

var (
	openForm   []string
	openMethod string
)

// openCmd represents the open command
var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Opens a screen or submits one of its forms",
	Long: `Opens a screen or submits one of its forms. With --form the request
is a POST. Usage:

	refclient open /referendums?q=parks
	refclient open /referendums/3/vote --form value=for
	refclient open /referendums/create --form title=Parks --form description=More --form tags=city,green
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		method := strings.ToUpper(openMethod)
		if method == "" {
			method = http.MethodGet
			if len(openForm) > 0 {
				method = http.MethodPost
			}
		}

		return withTerminal(cmd, func(c *cli.Client) error {
			form := cli.ParseForm(openForm)
			if method == http.MethodGet {
				form = nil
			}
			page, err := c.Do(cmd.Context(), method, args[0], form)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), page)
		})
	},
}

func init() {
	rootCmd.AddCommand(openCmd)

	openCmd.Flags().StringArrayVarP(&openForm, "form", "f", nil, "form field as key=value, repeatable")
	openCmd.Flags().StringVarP(&openMethod, "method", "X", "", "request method (default GET, or POST with --form)")
}
