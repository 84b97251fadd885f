/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"errors"
	"net/url"
	"os"
	"strings"

	"github.com/referenda/refclient/internal/cli"
	"github.com/spf13/cobra"
)

var (
	loginUsername      string
	loginPasswordStdin bool
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Signs in and keeps the session in local storage",
	Long: `Signs in and keeps the session in local storage. The password is
read from REFCLIENT_PASSWORD, or from stdin with --password-stdin. Usage:

	refclient login --username alice --password-stdin
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		return withTerminal(cmd, func(c *cli.Client) error {
			page, err := c.Post(cmd.Context(), "/login", url.Values{
				"username": {loginUsername},
				"password": {password},
			})
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), page)
		})
	},
}

func readPassword(cmd *cobra.Command) (string, error) {
	if !loginPasswordStdin {
		if p, ok := os.LookupEnv("REFCLIENT_PASSWORD"); ok {
			return p, nil
		}
		return "", errors.New("no password: set REFCLIENT_PASSWORD or use --password-stdin")
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password on stdin")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account to sign in as")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")
	_ = loginCmd.MarkFlagRequired("username")
}
