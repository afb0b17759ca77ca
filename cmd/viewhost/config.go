package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/viewhost/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Merges defaults, the config file and VIEWHOST_* environment variables and prints the result as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return config.Write(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
