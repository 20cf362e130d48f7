package cli

import (
	"github.com/spf13/cobra"

	"schoolpulse/internal/app"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Long: `Serve the dashboard, its JSON API and the websocket event stream until
interrupted. Listen address, dataset location and telemetry come from the
config file and SCHOOLPULSE_* environment variables.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts)
		},
	}
}

func runServe(opts *RootOptions) error {
	application, err := app.NewApplication(opts.ConfigFile)
	if err != nil {
		return err
	}
	return application.Run()
}
