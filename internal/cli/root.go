package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"schoolpulse/internal/config"
	"schoolpulse/internal/dataset"
	apperrors "schoolpulse/internal/errors"
	"schoolpulse/internal/exporter"
	"schoolpulse/internal/infrastructure"
	"schoolpulse/internal/services"
	"schoolpulse/pkg/contracts"
)

// Exit codes returned by ExitCode
const (
	ExitOK              = 0
	ExitDataUnavailable = 1
	ExitUsage           = 2
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Verbose    bool
}

// NewRootCommand creates the schoolpulse command. Without a subcommand it serves the dashboard.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Tokyo metropolitan high school admissions dashboard",
		Long: `Loads the yearly admission statistics published by the Tokyo bureau of
education and serves a dashboard of application ratios and applicant counts
per school, filterable by region.`,
		Version:       config.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.SetVersionTemplate(contracts.GetVersionString() + "\n")
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging on stderr")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewRegionsCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// ExitCode maps a command error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrTypeValidation, apperrors.ErrTypeConfig:
			return ExitUsage
		}
	}
	return ExitDataUnavailable
}

// offlineService builds a dashboard service for one-shot commands. Logs go
// to stderr so stdout stays clean for command output.
func offlineService(opts *RootOptions) (*services.DashboardService, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	logger, err := infrastructure.NewLogger(config.LoggingConfig{Level: level, Output: "stderr"})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logger.With(slog.String("component", "cli"))

	loader := dataset.NewLoader(cfg.Sources(), cfg.Dataset.Encoding, logger)
	cache := dataset.NewCache(loader, logger, nil)
	return services.NewDashboardService(cache, exporter.New(logger), logger), nil
}
