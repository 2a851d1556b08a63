package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pterm/pterm"

	"github.com/opsaudit/cloudlog-collector/internal/domain/entity"
	"github.com/opsaudit/cloudlog-collector/internal/domain/repository"
	"github.com/opsaudit/cloudlog-collector/internal/shared/types"
)

const (
	defaultWindowDays = 30
	defaultMaxResults = 5000
)

// CollectUseCase orchestrates one collection run across the selected
// providers.
type CollectUseCase struct {
	gcpRepo    repository.GCPRepository
	azureRepo  repository.AzureRepository
	entraRepo  repository.EntraRepository
	awsRepo    repository.AWSRepository
	exportRepo repository.ExportRepository
	configRepo repository.ConfigRepository
	console    types.ConsoleInterface
}

// NewCollectUseCase creates a new collect use case.
func NewCollectUseCase(
	gcpRepo repository.GCPRepository,
	azureRepo repository.AzureRepository,
	entraRepo repository.EntraRepository,
	awsRepo repository.AWSRepository,
	exportRepo repository.ExportRepository,
	configRepo repository.ConfigRepository,
	console types.ConsoleInterface,
) *CollectUseCase {
	return &CollectUseCase{
		gcpRepo:    gcpRepo,
		azureRepo:  azureRepo,
		entraRepo:  entraRepo,
		awsRepo:    awsRepo,
		exportRepo: exportRepo,
		configRepo: configRepo,
		console:    console,
	}
}

// MergeConfigFile loads the config file named in args, if any, and fills the
// arguments the user left unset. Command-line flags win over file values.
func (uc *CollectUseCase) MergeConfigFile(args *types.CLIArgs) (map[string]string, error) {
	filenames := map[string]string{}
	if args.ConfigFile == "" {
		return filenames, nil
	}

	config, err := uc.configRepo.LoadConfigFile(args.ConfigFile)
	if err != nil {
		return nil, err
	}

	if len(args.Providers) == 0 {
		args.Providers = config.Providers
	}
	if args.Start == "" {
		args.Start = config.Start
	}
	if args.End == "" {
		args.End = config.End
	}
	if args.Days == 0 {
		args.Days = config.Days
	}
	if args.MaxResults == 0 {
		args.MaxResults = config.MaxResults
	}
	if args.Filter == "" {
		args.Filter = config.Filter
	}
	if len(args.AWSAccounts) == 0 {
		args.AWSAccounts = config.AWSAccounts
	}
	if args.AWSRole == "" {
		args.AWSRole = config.AWSRole
	}
	if len(args.AWSRegions) == 0 {
		args.AWSRegions = config.AWSRegions
	}
	if args.Dir == "" {
		args.Dir = config.Dir
	}
	if args.ReportName == "" {
		args.ReportName = config.ReportName
	}
	if len(args.ReportType) == 0 {
		args.ReportType = config.ReportType
	}
	for provider, filename := range config.Filenames {
		filenames[provider] = filename
	}

	return filenames, nil
}

// ResolveWindow determines the collection window from the arguments. Explicit
// RFC3339 --start/--end win; a missing end defaults to now and a missing
// start to end minus the day range (default 30, the tool's original window).
func (uc *CollectUseCase) ResolveWindow(args *types.CLIArgs) (entity.TimeWindow, error) {
	days := args.Days
	if days <= 0 {
		days = defaultWindowDays
	}

	end := time.Now().UTC()
	if args.End != "" {
		parsed, err := time.Parse(time.RFC3339, args.End)
		if err != nil {
			return entity.TimeWindow{}, fmt.Errorf("invalid --end value %q: %w", args.End, err)
		}
		end = parsed.UTC()
	}

	start := end.AddDate(0, 0, -days)
	if args.Start != "" {
		parsed, err := time.Parse(time.RFC3339, args.Start)
		if err != nil {
			return entity.TimeWindow{}, fmt.Errorf("invalid --start value %q: %w", args.Start, err)
		}
		start = parsed.UTC()
	}

	if !start.Before(end) {
		return entity.TimeWindow{}, types.ErrInvalidTimeWindow
	}

	return entity.TimeWindow{Start: start, End: end}, nil
}

// ResolveProviders validates the provider selection. With no explicit
// selection every provider is collected, matching the original all-providers
// run; explicitSelection reports whether the user named providers themselves.
func (uc *CollectUseCase) ResolveProviders(args *types.CLIArgs) (providers []string, explicitSelection bool, err error) {
	if len(args.Providers) == 0 {
		return entity.AllProviders, false, nil
	}

	valid := map[string]bool{}
	for _, p := range entity.AllProviders {
		valid[p] = true
	}

	seen := map[string]bool{}
	for _, p := range args.Providers {
		if !valid[p] {
			return nil, true, fmt.Errorf("unknown provider %q (supported: gcp, azure, entra, aws)", p)
		}
		if !seen[p] {
			seen[p] = true
			providers = append(providers, p)
		}
	}
	if len(providers) == 0 {
		return nil, true, types.ErrNoProvidersSelected
	}
	return providers, true, nil
}

// RunCollection executes the collection across the selected providers and
// renders the run summary table. It fails only when every provider fails.
func (uc *CollectUseCase) RunCollection(ctx context.Context, args *types.CLIArgs) error {
	filenames, err := uc.MergeConfigFile(args)
	if err != nil {
		return err
	}

	window, err := uc.ResolveWindow(args)
	if err != nil {
		return err
	}

	providers, explicit, err := uc.ResolveProviders(args)
	if err != nil {
		return err
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	uc.console.LogInfo("Collecting logs from %s to %s", window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))

	runs := []entity.ProviderRun{}
	status := uc.console.Status("Starting collection...")

	for _, provider := range providers {
		if provider == entity.ProviderAWS && !explicit && len(args.AWSAccounts) == 0 {
			// An implicit all-providers run skips AWS rather than failing it
			// when no accounts are configured.
			uc.console.LogWarning("Skipping AWS: no accounts configured")
			continue
		}

		status.Update(fmt.Sprintf("Collecting %s logs...", provider))
		run := uc.collectProvider(ctx, provider, window, maxResults, args, filenames)
		runs = append(runs, run)

		if run.Succeeded() {
			uc.console.LogSuccess("%s: %d records written to %s", provider, run.Records, run.OutputFile)
		} else {
			uc.console.LogError("%s: %s", provider, run.Error)
		}
	}
	status.Stop()

	uc.console.Print(uc.renderSummaryTable(runs))

	if args.ReportName != "" {
		uc.exportRunSummary(runs, args)
	}

	if len(runs) == 0 {
		return types.ErrNoProvidersSelected
	}
	failed := 0
	for _, run := range runs {
		if !run.Succeeded() {
			failed++
		}
	}
	if failed == len(runs) {
		return types.ErrAllProvidersFailed
	}
	return nil
}

// collectProvider runs a single provider and captures the outcome. Collection
// errors are recorded in the run, never propagated.
func (uc *CollectUseCase) collectProvider(ctx context.Context, provider string, window entity.TimeWindow, maxResults int, args *types.CLIArgs, filenames map[string]string) entity.ProviderRun {
	run := entity.ProviderRun{
		Provider:   provider,
		Window:     window,
		WindowText: window.String(),
	}
	started := time.Now()

	var (
		records []entity.LogRecord
		details []string
		err     error
	)

	switch provider {
	case entity.ProviderGCP:
		records, details, err = uc.gcpRepo.CollectAuditLogs(ctx, window, maxResults, args.Filter)
	case entity.ProviderAzure:
		records, details, err = uc.azureRepo.CollectActivityLogs(ctx, window)
	case entity.ProviderEntra:
		records, err = uc.entraRepo.CollectSignInLogs(ctx, window)
	case entity.ProviderAWS:
		if len(args.AWSAccounts) == 0 || args.AWSRole == "" {
			err = types.ErrNoAWSAccounts
			break
		}
		records, details, err = uc.awsRepo.CollectCloudTrailEvents(ctx, args.AWSAccounts, args.AWSRole, args.AWSRegions, window)
	default:
		err = fmt.Errorf("unknown provider %q", provider)
	}

	run.Duration = time.Since(started)
	run.Elapsed = run.Duration.Round(time.Millisecond).String()
	run.Details = details

	if err != nil {
		run.Error = err.Error()
		return run
	}

	run.Records = len(records)

	filename, ok := filenames[provider]
	if !ok || filename == "" {
		filename = entity.DefaultFilenames[provider]
	}
	outputFile, err := uc.exportRepo.WriteRecordsJSON(records, filename, args.Dir)
	if err != nil {
		run.Error = err.Error()
		return run
	}
	run.OutputFile = outputFile

	return run
}

func (uc *CollectUseCase) renderSummaryTable(runs []entity.ProviderRun) string {
	table := uc.console.CreateTable()
	table.AddColumn("Provider")
	table.AddColumn("Records")
	table.AddColumn("Window")
	table.AddColumn("Elapsed")
	table.AddColumn("Output File")
	table.AddColumn("Status")

	for _, run := range runs {
		status := pterm.FgGreen.Sprint("OK")
		if !run.Succeeded() {
			status = pterm.FgRed.Sprintf("Error: %s", run.Error)
		}
		table.AddRow(
			pterm.FgMagenta.Sprint(run.Provider),
			fmt.Sprintf("%d", run.Records),
			run.WindowText,
			run.Elapsed,
			run.OutputFile,
			status,
		)
	}

	return table.Render()
}

func (uc *CollectUseCase) exportRunSummary(runs []entity.ProviderRun, args *types.CLIArgs) {
	for _, reportType := range args.ReportType {
		switch reportType {
		case "csv":
			path, err := uc.exportRepo.ExportRunSummaryToCSV(runs, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export run summary to CSV: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported run summary to CSV: %s", path)
			}
		case "json":
			path, err := uc.exportRepo.ExportRunSummaryToJSON(runs, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export run summary to JSON: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported run summary to JSON: %s", path)
			}
		case "pdf":
			path, err := uc.exportRepo.ExportRunSummaryToPDF(runs, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export run summary to PDF: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported run summary to PDF: %s", path)
			}
		default:
			uc.console.LogWarning("Unknown report type: %s", reportType)
		}
	}
}
