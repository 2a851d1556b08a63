package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opsaudit/cloudlog-collector/internal/application/usecase"
	"github.com/opsaudit/cloudlog-collector/internal/shared/types"
	"github.com/opsaudit/cloudlog-collector/pkg/version"
)

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd        *cobra.Command
	collectUseCase *usecase.CollectUseCase
	version        string
}

// NewCLIApp creates a new CLI application.
func NewCLIApp(versionStr string) *CLIApp {
	app := &CLIApp{
		version: versionStr,
	}

	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:     "cloudlog",
		Short:   "Cloud Log Collector CLI",
		Long:    "Collects audit and activity logs from GCP, Azure, Entra ID and AWS into local JSON files.",
		Version: formattedVersion,
		RunE:    app.runCommand,
	}

	rootCmd.SetVersionTemplate(`{{printf "Cloud Log Collector version: %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	rootCmd.PersistentFlags().StringSliceP("providers", "p", nil, "Providers to collect from: gcp, azure, entra, aws (default: all)")
	rootCmd.PersistentFlags().String("start", "", "Window start as RFC3339 timestamp (default: end minus --days)")
	rootCmd.PersistentFlags().String("end", "", "Window end as RFC3339 timestamp (default: now)")
	rootCmd.PersistentFlags().IntP("days", "t", 0, "Window length in days when --start is not given (default: 30)")
	rootCmd.PersistentFlags().IntP("max-results", "m", 0, "Maximum GCP log entries to collect (default: 5000)")
	rootCmd.PersistentFlags().StringP("filter", "f", "", "Extra GCP Cloud Logging filter, prepended to the timestamp filter")
	rootCmd.PersistentFlags().StringSliceP("aws-accounts", "a", nil, "AWS account IDs to collect CloudTrail events from (comma-separated)")
	rootCmd.PersistentFlags().String("aws-role", "", "Role name to assume in each AWS account")
	rootCmd.PersistentFlags().StringSliceP("aws-regions", "r", nil, "AWS regions to query (default: all regions enabled per account)")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "Directory to write log and report files (default: current directory)")
	rootCmd.PersistentFlags().StringP("report-name", "n", "", "Base name for the run summary report (without extension)")
	rootCmd.PersistentFlags().StringSliceP("report-type", "y", []string{"csv"}, "Run summary report types: csv, json, pdf")

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// parseArgs parses command-line arguments into a CLIArgs struct.
func (app *CLIApp) parseArgs() (*types.CLIArgs, error) {
	configFile, _ := app.rootCmd.Flags().GetString("config-file")
	providers, _ := app.rootCmd.Flags().GetStringSlice("providers")
	start, _ := app.rootCmd.Flags().GetString("start")
	end, _ := app.rootCmd.Flags().GetString("end")
	days, _ := app.rootCmd.Flags().GetInt("days")
	maxResults, _ := app.rootCmd.Flags().GetInt("max-results")
	filter, _ := app.rootCmd.Flags().GetString("filter")
	awsAccounts, _ := app.rootCmd.Flags().GetStringSlice("aws-accounts")
	awsRole, _ := app.rootCmd.Flags().GetString("aws-role")
	awsRegions, _ := app.rootCmd.Flags().GetStringSlice("aws-regions")
	dir, _ := app.rootCmd.Flags().GetString("dir")
	reportName, _ := app.rootCmd.Flags().GetString("report-name")
	reportType, _ := app.rootCmd.Flags().GetStringSlice("report-type")

	// Default to the current working directory when no directory is given.
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = cwd
	} else {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		dir = absDir
	}

	args := &types.CLIArgs{
		ConfigFile:  configFile,
		Providers:   providers,
		Start:       start,
		End:         end,
		Days:        days,
		MaxResults:  maxResults,
		Filter:      filter,
		AWSAccounts: awsAccounts,
		AWSRole:     awsRole,
		AWSRegions:  awsRegions,
		Dir:         dir,
		ReportName:  reportName,
		ReportType:  reportType,
	}

	return args, nil
}

// runCommand is the main entry point for the CLI command.
func (app *CLIApp) runCommand(cmd *cobra.Command, args []string) error {
	displayWelcomeBanner(app.version)

	go version.CheckLatestVersion(app.version)

	cliArgs, err := app.parseArgs()
	if err != nil {
		return err
	}

	ctx := context.Background()
	return app.collectUseCase.RunCollection(ctx, cliArgs)
}

// SetCollectUseCase sets the collect use case for the CLI app.
func (app *CLIApp) SetCollectUseCase(useCase *usecase.CollectUseCase) {
	app.collectUseCase = useCase
}
