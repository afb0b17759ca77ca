package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/viewhost"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of viewhost",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "viewhost v%s\n", strings.TrimSpace(viewhost.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
