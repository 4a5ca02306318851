package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	clear "github.com/J3rome/CLEAR-AQA-Dataset-Generator"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the generator version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aqagen version %s\n", strings.TrimSpace(clear.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
