package repository

import (
	"github.com/opsaudit/cloudlog-collector/internal/domain/entity"
)

// ExportRepository defines the interface for writing collected logs and run
// summaries to local files.
type ExportRepository interface {
	// WriteRecordsJSON writes the raw record slice to <outputDir>/<filename>
	// as indented JSON and returns the absolute path.
	WriteRecordsJSON(records []entity.LogRecord, filename, outputDir string) (string, error)

	// Run summary reports, one row per provider.
	ExportRunSummaryToCSV(runs []entity.ProviderRun, filename, outputDir string) (string, error)
	ExportRunSummaryToJSON(runs []entity.ProviderRun, filename, outputDir string) (string, error)
	ExportRunSummaryToPDF(runs []entity.ProviderRun, filename, outputDir string) (string, error)
}
