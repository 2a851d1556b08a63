package gcp

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/logging"
	"cloud.google.com/go/logging/logadmin"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/cloudresourcemanager/v1"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/api/serviceusage/v1"

	"github.com/opsaudit/cloudlog-collector/internal/domain/entity"
	"github.com/opsaudit/cloudlog-collector/internal/domain/repository"
)

const resourceManagerAPI = "cloudresourcemanager.googleapis.com"

// GCPRepositoryImpl collects organization-wide audit logs from Cloud Logging.
type GCPRepositoryImpl struct{}

// NewGCPRepository creates a new implementation of the GCPRepository.
func NewGCPRepository() repository.GCPRepository {
	return &GCPRepositoryImpl{}
}

// CollectAuditLogs resolves the organization of the default credentials and
// lists its audit log entries within the window, newest first.
func (r *GCPRepositoryImpl) CollectAuditLogs(ctx context.Context, window entity.TimeWindow, maxResults int, filter string) ([]entity.LogRecord, []string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load default GCP credentials: %w", err)
	}

	var details []string

	if creds.ProjectID != "" {
		if err := ensureAPIEnabled(ctx, creds, creds.ProjectID, resourceManagerAPI); err != nil {
			return nil, nil, err
		}
		details = append(details, fmt.Sprintf("API %s enabled for project %s", resourceManagerAPI, creds.ProjectID))
	}

	organization, err := findOrganization(ctx, creds)
	if err != nil {
		return nil, nil, err
	}
	details = append(details, fmt.Sprintf("organization: %s (%s)", organization.DisplayName, organization.Name))

	client, err := logadmin.NewClient(ctx, organization.Name, option.WithCredentials(creds))
	if err != nil {
		return nil, nil, fmt.Errorf("logadmin.NewClient: %w", err)
	}
	defer client.Close()

	records := []entity.LogRecord{}
	it := client.Entries(ctx, logadmin.Filter(buildEntryFilter(window, filter)), logadmin.NewestFirst())
	for {
		if maxResults > 0 && len(records) >= maxResults {
			break
		}
		entry, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, details, fmt.Errorf("failed to list log entries: %w", err)
		}
		records = append(records, entryToRecord(entry))
	}

	return records, details, nil
}

// ensureAPIEnabled enables the named API on the project when it is not
// already active, then polls the service state until it reports ENABLED.
// Operation GET on service activation is unreliable, so poll the service
// itself (same workaround as Service Usage deployments elsewhere).
func ensureAPIEnabled(ctx context.Context, creds *google.Credentials, projectID, apiName string) error {
	svc, err := serviceusage.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return fmt.Errorf("serviceusage.NewService: %w", err)
	}

	name := fmt.Sprintf("projects/%s/services/%s", projectID, apiName)
	state, err := svc.Services.Get(name).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get state of API %s: %w", apiName, err)
	}
	if state.State == "ENABLED" {
		return nil
	}

	if _, err := svc.Services.Enable(name, &serviceusage.EnableServiceRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to enable API %s for project %s: %w", apiName, projectID, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
		state, err = svc.Services.Get(name).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to poll state of API %s: %w", apiName, err)
		}
		if state.State == "ENABLED" {
			return nil
		}
	}
}

// findOrganization searches the organizations visible to the credentials and
// returns the first one.
func findOrganization(ctx context.Context, creds *google.Credentials) (*cloudresourcemanager.Organization, error) {
	crm, err := cloudresourcemanager.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("cloudresourcemanager.NewService: %w", err)
	}

	resp, err := crm.Organizations.Search(&cloudresourcemanager.SearchOrganizationsRequest{}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search organizations: %w", err)
	}
	if len(resp.Organizations) == 0 {
		return nil, fmt.Errorf("no organizations found for the default credentials")
	}
	return resp.Organizations[0], nil
}

// buildEntryFilter combines the user filter with the timestamp window in the
// Cloud Logging filter syntax (terms are ANDed by juxtaposition).
func buildEntryFilter(window entity.TimeWindow, filter string) string {
	entryFilter := fmt.Sprintf(`timestamp>="%s" timestamp<="%s"`,
		window.Start.UTC().Format(time.RFC3339),
		window.End.UTC().Format(time.RFC3339))
	if filter != "" {
		entryFilter = fmt.Sprintf("%s %s", filter, entryFilter)
	}
	return entryFilter
}

// entryToRecord renders a log entry in its API representation.
func entryToRecord(e *logging.Entry) entity.LogRecord {
	rec := entity.LogRecord{
		"logName":   e.LogName,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339Nano),
		"severity":  e.Severity.String(),
	}
	if e.InsertID != "" {
		rec["insertId"] = e.InsertID
	}
	if e.Payload != nil {
		rec["payload"] = e.Payload
	}
	if e.Resource != nil {
		resource := map[string]interface{}{"type": e.Resource.Type}
		if len(e.Resource.Labels) > 0 {
			resource["labels"] = e.Resource.Labels
		}
		rec["resource"] = resource
	}
	if len(e.Labels) > 0 {
		rec["labels"] = e.Labels
	}
	if e.Trace != "" {
		rec["trace"] = e.Trace
	}
	if e.SpanID != "" {
		rec["spanId"] = e.SpanID
	}
	return rec
}
