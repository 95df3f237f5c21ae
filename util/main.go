/*
Command ccwalkerutil provides operator tooling that sits outside the core
ingestion path, such as resetting the Postgres schema in development.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// UtilCommand is the root of the ccwalkerutil command tree.
var UtilCommand = cobra.Command{
	Use: "ccwalkerutil",
}

// ConfigPath is the value set by the --config flag. Commands are
// responsible for reading this config in if it isn't the empty string.
var ConfigPath string

func main() {
	UtilCommand.PersistentFlags().StringVarP(&ConfigPath,
		"config", "c", "", "path to a config file to load")

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "exiting with error: %v\n", r)
			os.Exit(1)
		}
	}()
	if err := UtilCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
