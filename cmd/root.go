/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/referenda/refclient/config"
	"github.com/referenda/refclient/internal/logger"
	"github.com/spf13/cobra"
)

var (
	flagAPIURL   string
	flagTimeout  time.Duration
	flagStateDir string

	cfg config.Config
	log *slog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "refclient",
	Short: "Client for the referendum voting API",
	Long: `refclient talks to the referendum voting API. It either serves the
client screens to browsers or drives them from the terminal:

	refclient serve
	refclient login --username alice
	refclient open /referendums
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()

		flags := cmd.Flags()
		if flags.Changed("api-url") {
			cfg.API.BaseURL = flagAPIURL
		}
		if flags.Changed("timeout") {
			cfg.API.Timeout = flagTimeout
		}
		if flags.Changed("state-dir") {
			cfg.StateDir = flagStateDir
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log = logger.New(logger.Config{
			Environment: cfg.Env,
			Level:       logger.ParseLevel(cfg.LogLevel),
		})
		slog.SetDefault(log)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "base URL of the referendum API (API_BASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "timeout of every API request (API_TIMEOUT_MS)")
	rootCmd.PersistentFlags().StringVar(&flagStateDir, "state-dir", "", "directory holding the terminal session (STATE_DIR)")
}
