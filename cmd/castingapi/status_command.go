package main

import (
	"github.com/spf13/cobra"
)

func newVideoStatusCommand() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "video-status VIDEO_ID",
		Short: "Print the normalized readiness status of a provider video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := wireApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if provider == "" {
				provider = app.Config.UploadProvider
			}
			status, err := app.Poller.GetStatus(cmd.Context(), provider, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, status)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "Status provider tag (bunny, cloudflare, youtube)")
	return cmd
}
