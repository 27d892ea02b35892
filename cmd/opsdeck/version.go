package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opsdeck/opsdeck"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of opsdeck",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("opsdeck version %s\n", strings.TrimSpace(opsdeck.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
