package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print stagepipe version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("stagepipe version %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Built:  %s\n", BuildTime)
		return nil
	},
}
