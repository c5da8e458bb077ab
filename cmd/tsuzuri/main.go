// Command tsuzuri runs the diary companion service and offers local
// helpers for chatting and browsing entries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "tsuzuri",
		Short:        "A diary companion that turns a short conversation into a diary entry",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML)")

	root.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newDiaryCmd(),
		newSessionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
