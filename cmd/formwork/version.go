package main

import (
	"fmt"

	"github.com/aretw0/formwork"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of formwork",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "formwork version %s\n", formwork.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
