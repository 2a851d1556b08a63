package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/monitor/armmonitor"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"

	"github.com/opsaudit/cloudlog-collector/internal/domain/entity"
	"github.com/opsaudit/cloudlog-collector/internal/domain/repository"
)

// AzureRepositoryImpl collects Activity Log events across all subscriptions
// visible to the local Azure CLI login.
type AzureRepositoryImpl struct {
	credential azcore.TokenCredential
}

// NewAzureRepository creates a new implementation of the AzureRepository.
func NewAzureRepository() repository.AzureRepository {
	return &AzureRepositoryImpl{}
}

// NewAzureRepositoryWithCredential creates an AzureRepository with an explicit
// credential instead of the Azure CLI one.
func NewAzureRepositoryWithCredential(credential azcore.TokenCredential) repository.AzureRepository {
	return &AzureRepositoryImpl{credential: credential}
}

func (r *AzureRepositoryImpl) getCredential() (azcore.TokenCredential, error) {
	if r.credential != nil {
		return r.credential, nil
	}
	cred, err := azidentity.NewAzureCLICredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure CLI credential: %w", err)
	}
	r.credential = cred
	return cred, nil
}

// CollectActivityLogs lists all subscriptions and pages through each one's
// Activity Log within the window. A failing subscription is reported as a
// detail line and skipped.
func (r *AzureRepositoryImpl) CollectActivityLogs(ctx context.Context, window entity.TimeWindow) ([]entity.LogRecord, []string, error) {
	cred, err := r.getCredential()
	if err != nil {
		return nil, nil, err
	}

	subsClient, err := armsubscriptions.NewClient(cred, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create subscriptions client: %w", err)
	}

	subscriptions := []string{}
	pager := subsClient.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list subscriptions: %w", err)
		}
		for _, sub := range page.Value {
			if sub.SubscriptionID != nil {
				subscriptions = append(subscriptions, *sub.SubscriptionID)
			}
		}
	}

	filter := fmt.Sprintf("eventTimestamp ge '%s' and eventTimestamp le '%s'",
		window.Start.UTC().Format(time.RFC3339),
		window.End.UTC().Format(time.RFC3339))

	records := []entity.LogRecord{}
	details := []string{}

	for _, subscriptionID := range subscriptions {
		count, err := r.collectSubscription(ctx, cred, subscriptionID, filter, &records)
		if err != nil {
			details = append(details, fmt.Sprintf("subscription %s: %s", subscriptionID, err))
			continue
		}
		details = append(details, fmt.Sprintf("subscription %s: %d events", subscriptionID, count))
	}

	return records, details, nil
}

func (r *AzureRepositoryImpl) collectSubscription(ctx context.Context, cred azcore.TokenCredential, subscriptionID, filter string, records *[]entity.LogRecord) (int, error) {
	client, err := armmonitor.NewActivityLogsClient(subscriptionID, cred, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create activity logs client: %w", err)
	}

	count := 0
	pager := client.NewListPager(filter, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return count, fmt.Errorf("failed to list activity logs: %w", err)
		}
		for _, event := range page.Value {
			rec, err := eventToRecord(event)
			if err != nil {
				return count, err
			}
			*records = append(*records, rec)
			count++
		}
	}
	return count, nil
}

// eventToRecord flattens the typed event back into its wire representation so
// the output file keeps the provider's own schema.
func eventToRecord(event *armmonitor.EventData) (entity.LogRecord, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal activity log event: %w", err)
	}
	var rec entity.LogRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode activity log event: %w", err)
	}
	return rec, nil
}
