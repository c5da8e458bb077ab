package main

import (
	"github.com/spf13/cobra"

	tsuzuri "github.com/tsuzuri-dev/tsuzuri"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the diary API and metrics servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tsuzuri.Run(configPath)
		},
	}
}
