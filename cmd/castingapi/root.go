package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/casting-intake/internal/app/casting"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "castingapi",
		Short:         "Casting submission upload and readiness API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFlag != "" {
				return os.Setenv(casting.ConfigFileEnv, configFlag)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "TOML configuration file path")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newProvisionChannelCommand())
	rootCmd.AddCommand(newVideoStatusCommand())

	return rootCmd
}

func wireApp(cmd *cobra.Command) (*casting.App, error) {
	cfg, err := casting.LoadConfig()
	if err != nil {
		return nil, err
	}
	return casting.Wire(cmd.Context(), cfg, nil)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
