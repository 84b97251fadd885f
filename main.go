/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/referenda/refclient/cmd"

func main() {
	cmd.Execute()
}
