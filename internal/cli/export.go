package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "schoolpulse/internal/errors"
	"schoolpulse/internal/exporter"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Format  string
	Regions []string
	Out     string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the detail table to a CSV or XLSX file",
		Long: `Write the sorted detail table for the selected regions (all regions when
none are given) to a file.

Example:
  schoolpulse export --format xlsx --region 千代田区 --region 新宿区 --out admissions.xlsx
  schoolpulse export --format csv --out -`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", string(exporter.FormatCSV), "output format (csv|xlsx)")
	cmd.Flags().StringArrayVarP(&opts.Regions, "region", "r", nil, "region to include; repeatable")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", `output file, "-" for stdout (default: exporter file name in the working directory)`)

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	format, err := exporter.ParseFormat(opts.Format)
	if err != nil {
		return apperrors.NewAppValidationError(err.Error())
	}

	svc, err := offlineService(opts.RootOptions)
	if err != nil {
		return err
	}

	out := opts.Out
	if out == "" {
		out = format.FileName()
	}

	if out == "-" {
		return svc.Export(cmd.Context(), cmd.OutOrStdout(), string(format), opts.Regions)
	}

	if err := svc.ExportFile(cmd.Context(), out, string(format), opts.Regions); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out)
	return nil
}
