package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newProvisionChannelCommand() *cobra.Command {
	var project, role string

	cmd := &cobra.Command{
		Use:   "provision-channel",
		Short: "Create a distribution channel for a project role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if project == "" || role == "" {
				return errors.New("--project and --role are required")
			}
			app, err := wireApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ch, err := app.Provisioner.ProvisionChannel(cmd.Context(), project, role)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{
				"channelId":   ch.ChannelID,
				"usedDefault": ch.UsedDefault,
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project name")
	cmd.Flags().StringVar(&role, "role", "", "Role name")
	return cmd
}
