package repository

import (
	"context"

	"github.com/opsaudit/cloudlog-collector/internal/domain/entity"
)

// GCPRepository defines the interface for collecting GCP audit logs.
type GCPRepository interface {
	// CollectAuditLogs lists organization audit log entries within the window,
	// newest first, stopping after maxResults entries. An optional user filter
	// is prepended to the timestamp filter.
	CollectAuditLogs(ctx context.Context, window entity.TimeWindow, maxResults int, filter string) ([]entity.LogRecord, []string, error)
}

// AzureRepository defines the interface for collecting Azure Activity Log events.
type AzureRepository interface {
	// CollectActivityLogs pages through the Activity Log of every visible
	// subscription. A subscription that fails is reported as a detail line and
	// skipped.
	CollectActivityLogs(ctx context.Context, window entity.TimeWindow) ([]entity.LogRecord, []string, error)
}

// EntraRepository defines the interface for collecting Entra ID sign-in logs.
type EntraRepository interface {
	// CollectSignInLogs queries the Microsoft Graph sign-in log within the
	// window, following @odata.nextLink continuation pages.
	CollectSignInLogs(ctx context.Context, window entity.TimeWindow) ([]entity.LogRecord, error)
}

// AWSRepository defines the interface for collecting CloudTrail events.
type AWSRepository interface {
	// CollectCloudTrailEvents assumes the role in each account and pages
	// through CloudTrail events across the account's regions. Per-account and
	// per-region failures are reported as detail lines, never as a fatal error.
	CollectCloudTrailEvents(ctx context.Context, accounts []string, roleName string, regions []string, window entity.TimeWindow) ([]entity.LogRecord, []string, error)
}
