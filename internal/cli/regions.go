package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// RegionsOptions holds flags for the regions command.
type RegionsOptions struct {
	*RootOptions
	JSON bool
}

// NewRegionsCommand creates the regions command.
func NewRegionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "regions",
		Short:         "List the regions present in the dataset",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegions(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print a JSON array")

	return cmd
}

func runRegions(cmd *cobra.Command, opts *RegionsOptions) error {
	svc, err := offlineService(opts.RootOptions)
	if err != nil {
		return err
	}

	regions, err := svc.Regions(cmd.Context())
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(regions)
	}
	for _, region := range regions {
		fmt.Fprintln(cmd.OutOrStdout(), region)
	}
	return nil
}
