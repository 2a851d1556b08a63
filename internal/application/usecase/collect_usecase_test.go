package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opsaudit/cloudlog-collector/internal/domain/entity"
	"github.com/opsaudit/cloudlog-collector/internal/shared/types"
)

// --- test doubles ---

type fakeConsole struct {
	warnings  []string
	errors    []string
	successes []string
}

func (c *fakeConsole) Print(a ...interface{})                  {}
func (c *fakeConsole) Printf(format string, a ...interface{})  {}
func (c *fakeConsole) Println(a ...interface{})                {}
func (c *fakeConsole) LogInfo(format string, a ...interface{}) {}

func (c *fakeConsole) LogWarning(format string, a ...interface{}) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) LogError(format string, a ...interface{}) {
	c.errors = append(c.errors, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) LogSuccess(format string, a ...interface{}) {
	c.successes = append(c.successes, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) Status(message string) types.StatusHandle { return fakeStatus{} }
func (c *fakeConsole) ProgressWithTotal(total int) types.ProgressHandle {
	return fakeProgress{}
}
func (c *fakeConsole) CreateTable() types.TableInterface { return &fakeTable{} }

type fakeStatus struct{}

func (fakeStatus) Update(message string) {}
func (fakeStatus) Stop()                 {}

type fakeProgress struct{}

func (fakeProgress) Increment() {}
func (fakeProgress) Stop()      {}

type fakeTable struct{}

func (t *fakeTable) AddColumn(name string, options ...interface{}) {}
func (t *fakeTable) AddRow(cells ...interface{})                   {}
func (t *fakeTable) Render() string                                { return "" }

type fakeGCPRepo struct {
	records []entity.LogRecord
	err     error
	called  bool
	filter  string
}

func (r *fakeGCPRepo) CollectAuditLogs(ctx context.Context, window entity.TimeWindow, maxResults int, filter string) ([]entity.LogRecord, []string, error) {
	r.called = true
	r.filter = filter
	return r.records, nil, r.err
}

type fakeAzureRepo struct {
	records []entity.LogRecord
	err     error
	called  bool
}

func (r *fakeAzureRepo) CollectActivityLogs(ctx context.Context, window entity.TimeWindow) ([]entity.LogRecord, []string, error) {
	r.called = true
	return r.records, nil, r.err
}

type fakeEntraRepo struct {
	records []entity.LogRecord
	err     error
	called  bool
}

func (r *fakeEntraRepo) CollectSignInLogs(ctx context.Context, window entity.TimeWindow) ([]entity.LogRecord, error) {
	r.called = true
	return r.records, r.err
}

type fakeAWSRepo struct {
	records  []entity.LogRecord
	err      error
	called   bool
	accounts []string
	roleName string
}

func (r *fakeAWSRepo) CollectCloudTrailEvents(ctx context.Context, accounts []string, roleName string, regions []string, window entity.TimeWindow) ([]entity.LogRecord, []string, error) {
	r.called = true
	r.accounts = accounts
	r.roleName = roleName
	return r.records, nil, r.err
}

type writtenFile struct {
	filename string
	dir      string
	count    int
}

type fakeExportRepo struct {
	written     []writtenFile
	writeErr    error
	csvExports  int
	jsonExports int
	pdfExports  int
}

func (r *fakeExportRepo) WriteRecordsJSON(records []entity.LogRecord, filename, outputDir string) (string, error) {
	if r.writeErr != nil {
		return "", r.writeErr
	}
	r.written = append(r.written, writtenFile{filename: filename, dir: outputDir, count: len(records)})
	return "/out/" + filename, nil
}

func (r *fakeExportRepo) ExportRunSummaryToCSV(runs []entity.ProviderRun, filename, outputDir string) (string, error) {
	r.csvExports++
	return "/out/" + filename + ".csv", nil
}

func (r *fakeExportRepo) ExportRunSummaryToJSON(runs []entity.ProviderRun, filename, outputDir string) (string, error) {
	r.jsonExports++
	return "/out/" + filename + ".json", nil
}

func (r *fakeExportRepo) ExportRunSummaryToPDF(runs []entity.ProviderRun, filename, outputDir string) (string, error) {
	r.pdfExports++
	return "/out/" + filename + ".pdf", nil
}

type fakeConfigRepo struct {
	config *types.Config
	err    error
}

func (r *fakeConfigRepo) LoadConfigFile(filePath string) (*types.Config, error) {
	return r.config, r.err
}

type fixture struct {
	gcp     *fakeGCPRepo
	azure   *fakeAzureRepo
	entra   *fakeEntraRepo
	aws     *fakeAWSRepo
	export  *fakeExportRepo
	config  *fakeConfigRepo
	console *fakeConsole
	uc      *CollectUseCase
}

func newFixture() *fixture {
	f := &fixture{
		gcp:     &fakeGCPRepo{},
		azure:   &fakeAzureRepo{},
		entra:   &fakeEntraRepo{},
		aws:     &fakeAWSRepo{},
		export:  &fakeExportRepo{},
		config:  &fakeConfigRepo{},
		console: &fakeConsole{},
	}
	f.uc = NewCollectUseCase(f.gcp, f.azure, f.entra, f.aws, f.export, f.config, f.console)
	return f
}

// --- ResolveWindow ---

func TestResolveWindowDefaults(t *testing.T) {
	f := newFixture()

	window, err := f.uc.ResolveWindow(&types.CLIArgs{})
	require.NoError(t, err)

	require.WithinDuration(t, time.Now().UTC(), window.End, 5*time.Second)
	require.WithinDuration(t, window.End.AddDate(0, 0, -30), window.Start, time.Second)
}

func TestResolveWindowDays(t *testing.T) {
	f := newFixture()

	window, err := f.uc.ResolveWindow(&types.CLIArgs{Days: 7, End: "2024-03-31T00:00:00Z"})
	require.NoError(t, err)

	require.Equal(t, "2024-03-31T00:00:00Z", window.End.Format(time.RFC3339))
	require.Equal(t, "2024-03-24T00:00:00Z", window.Start.Format(time.RFC3339))
}

func TestResolveWindowExplicit(t *testing.T) {
	f := newFixture()

	window, err := f.uc.ResolveWindow(&types.CLIArgs{
		Start: "2024-01-01T00:00:00Z",
		End:   "2024-02-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.Equal(t, "2024-01-01T00:00:00Z", window.Start.Format(time.RFC3339))
	require.Equal(t, "2024-02-01T00:00:00Z", window.End.Format(time.RFC3339))
}

func TestResolveWindowErrors(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		args types.CLIArgs
	}{
		{"bad start", types.CLIArgs{Start: "yesterday"}},
		{"bad end", types.CLIArgs{End: "2024-13-99"}},
		{"inverted window", types.CLIArgs{Start: "2024-02-01T00:00:00Z", End: "2024-01-01T00:00:00Z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.ResolveWindow(&tt.args)
			require.Error(t, err)
		})
	}

	_, err := f.uc.ResolveWindow(&types.CLIArgs{Start: "2024-02-01T00:00:00Z", End: "2024-01-01T00:00:00Z"})
	require.ErrorIs(t, err, types.ErrInvalidTimeWindow)
}

// --- ResolveProviders ---

func TestResolveProvidersDefaultsToAll(t *testing.T) {
	f := newFixture()

	providers, explicit, err := f.uc.ResolveProviders(&types.CLIArgs{})
	require.NoError(t, err)
	require.False(t, explicit)
	require.Equal(t, entity.AllProviders, providers)
}

func TestResolveProvidersExplicit(t *testing.T) {
	f := newFixture()

	providers, explicit, err := f.uc.ResolveProviders(&types.CLIArgs{Providers: []string{"aws", "gcp", "aws"}})
	require.NoError(t, err)
	require.True(t, explicit)
	require.Equal(t, []string{"aws", "gcp"}, providers)
}

func TestResolveProvidersUnknown(t *testing.T) {
	f := newFixture()

	_, _, err := f.uc.ResolveProviders(&types.CLIArgs{Providers: []string{"gcp", "oci"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), `unknown provider "oci"`)
}

// --- MergeConfigFile ---

func TestMergeConfigFileNoFile(t *testing.T) {
	f := newFixture()

	filenames, err := f.uc.MergeConfigFile(&types.CLIArgs{})
	require.NoError(t, err)
	require.Empty(t, filenames)
}

func TestMergeConfigFileFillsUnsetArgs(t *testing.T) {
	f := newFixture()
	f.config.config = &types.Config{
		Providers:   []string{"gcp"},
		Days:        14,
		MaxResults:  200,
		AWSAccounts: []string{"012345678901"},
		AWSRole:     "SecurityAuditRole",
		Dir:         "/var/log/cloud",
		Filenames:   map[string]string{"gcp": "org_audit.json"},
	}

	args := &types.CLIArgs{ConfigFile: "config.yaml", Days: 7}
	filenames, err := f.uc.MergeConfigFile(args)
	require.NoError(t, err)

	// Flags win over file values.
	require.Equal(t, 7, args.Days)
	require.Equal(t, []string{"gcp"}, args.Providers)
	require.Equal(t, 200, args.MaxResults)
	require.Equal(t, []string{"012345678901"}, args.AWSAccounts)
	require.Equal(t, "SecurityAuditRole", args.AWSRole)
	require.Equal(t, "/var/log/cloud", args.Dir)
	require.Equal(t, "org_audit.json", filenames["gcp"])
}

func TestMergeConfigFileLoadError(t *testing.T) {
	f := newFixture()
	f.config.err = fmt.Errorf("error parsing TOML file")

	_, err := f.uc.MergeConfigFile(&types.CLIArgs{ConfigFile: "broken.toml"})
	require.Error(t, err)
}

// --- RunCollection ---

func TestRunCollectionWritesProviderFiles(t *testing.T) {
	f := newFixture()
	f.gcp.records = []entity.LogRecord{{"logName": "a"}, {"logName": "b"}}
	f.entra.records = []entity.LogRecord{{"id": "s1"}}

	args := &types.CLIArgs{Providers: []string{"gcp", "entra"}, Dir: "/out"}
	err := f.uc.RunCollection(context.Background(), args)
	require.NoError(t, err)

	require.True(t, f.gcp.called)
	require.True(t, f.entra.called)
	require.False(t, f.aws.called)

	require.Len(t, f.export.written, 2)
	require.Equal(t, "gcp_audit_logs.json", f.export.written[0].filename)
	require.Equal(t, 2, f.export.written[0].count)
	require.Equal(t, "entra_id_signins.json", f.export.written[1].filename)
	require.Equal(t, 1, f.export.written[1].count)
}

func TestRunCollectionFilenameOverride(t *testing.T) {
	f := newFixture()
	f.config.config = &types.Config{Filenames: map[string]string{"gcp": "org_audit.json"}}

	args := &types.CLIArgs{ConfigFile: "config.yaml", Providers: []string{"gcp"}}
	err := f.uc.RunCollection(context.Background(), args)
	require.NoError(t, err)

	require.Len(t, f.export.written, 1)
	require.Equal(t, "org_audit.json", f.export.written[0].filename)
}

func TestRunCollectionPassesFilter(t *testing.T) {
	f := newFixture()

	args := &types.CLIArgs{Providers: []string{"gcp"}, Filter: `severity>=ERROR`}
	require.NoError(t, f.uc.RunCollection(context.Background(), args))
	require.Equal(t, `severity>=ERROR`, f.gcp.filter)
}

func TestRunCollectionImplicitRunSkipsAWS(t *testing.T) {
	f := newFixture()

	err := f.uc.RunCollection(context.Background(), &types.CLIArgs{})
	require.NoError(t, err)

	require.True(t, f.gcp.called)
	require.True(t, f.azure.called)
	require.True(t, f.entra.called)
	require.False(t, f.aws.called)
	require.Contains(t, f.console.warnings, "Skipping AWS: no accounts configured")
}

func TestRunCollectionExplicitAWSWithoutAccounts(t *testing.T) {
	f := newFixture()
	f.gcp.records = []entity.LogRecord{{"logName": "a"}}

	args := &types.CLIArgs{Providers: []string{"gcp", "aws"}}
	err := f.uc.RunCollection(context.Background(), args)

	// One provider succeeded, so the run as a whole does not fail.
	require.NoError(t, err)
	require.False(t, f.aws.called)
	require.NotEmpty(t, f.console.errors)
}

func TestRunCollectionAWS(t *testing.T) {
	f := newFixture()
	f.aws.records = []entity.LogRecord{{"EventId": "e1"}}

	args := &types.CLIArgs{
		Providers:   []string{"aws"},
		AWSAccounts: []string{"012345678901", "000000000001"},
		AWSRole:     "SecurityAuditRole",
	}
	err := f.uc.RunCollection(context.Background(), args)
	require.NoError(t, err)

	require.True(t, f.aws.called)
	require.Equal(t, []string{"012345678901", "000000000001"}, f.aws.accounts)
	require.Equal(t, "SecurityAuditRole", f.aws.roleName)
	require.Len(t, f.export.written, 1)
	require.Equal(t, "aws_events.json", f.export.written[0].filename)
}

func TestRunCollectionAllProvidersFailed(t *testing.T) {
	f := newFixture()
	f.gcp.err = fmt.Errorf("permission denied")
	f.entra.err = fmt.Errorf("az login required")

	args := &types.CLIArgs{Providers: []string{"gcp", "entra"}}
	err := f.uc.RunCollection(context.Background(), args)
	require.ErrorIs(t, err, types.ErrAllProvidersFailed)
	require.Empty(t, f.export.written)
}

func TestRunCollectionPartialFailure(t *testing.T) {
	f := newFixture()
	f.gcp.err = fmt.Errorf("permission denied")
	f.azure.records = []entity.LogRecord{{"eventDataId": "e1"}}

	args := &types.CLIArgs{Providers: []string{"gcp", "azure"}}
	err := f.uc.RunCollection(context.Background(), args)
	require.NoError(t, err)
	require.Len(t, f.export.written, 1)
	require.Equal(t, "azure_events.json", f.export.written[0].filename)
}

func TestRunCollectionWriteFailureFailsProvider(t *testing.T) {
	f := newFixture()
	f.gcp.records = []entity.LogRecord{{"logName": "a"}}
	f.export.writeErr = fmt.Errorf("disk full")

	args := &types.CLIArgs{Providers: []string{"gcp"}}
	err := f.uc.RunCollection(context.Background(), args)
	require.ErrorIs(t, err, types.ErrAllProvidersFailed)
}

func TestRunCollectionExportsSummaryReports(t *testing.T) {
	f := newFixture()
	f.gcp.records = []entity.LogRecord{{"logName": "a"}}

	args := &types.CLIArgs{
		Providers:  []string{"gcp"},
		ReportName: "collection",
		ReportType: []string{"csv", "json", "pdf"},
	}
	require.NoError(t, f.uc.RunCollection(context.Background(), args))

	require.Equal(t, 1, f.export.csvExports)
	require.Equal(t, 1, f.export.jsonExports)
	require.Equal(t, 1, f.export.pdfExports)
}

func TestRunCollectionInvalidWindow(t *testing.T) {
	f := newFixture()

	err := f.uc.RunCollection(context.Background(), &types.CLIArgs{Start: "not-a-time"})
	require.Error(t, err)
	require.False(t, f.gcp.called)
}
