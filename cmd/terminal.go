/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/referenda/refclient/internal/apiclient"
	"github.com/referenda/refclient/internal/cli"
	"github.com/referenda/refclient/internal/store"
	"github.com/spf13/cobra"
)

// withTerminal opens local storage and the terminal client for the length
// of fn.
func withTerminal(cmd *cobra.Command, fn func(c *cli.Client) error) error {
	storage, err := store.Open(cfg.StateDir, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.Warn("failed to close local storage", "error", err)
		}
	}()

	api, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	c, err := cli.Open(cmd.Context(), api, storage, log)
	if err != nil {
		return err
	}
	return fn(c)
}

// printPage writes the page and turns an error status into a command error.
func printPage(w io.Writer, page cli.Page) error {
	fmt.Fprint(w, page.Body)
	if !page.OK() {
		return fmt.Errorf("%s returned %d", page.Path, page.Status)
	}
	return nil
}
