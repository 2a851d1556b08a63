package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	ctTypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/opsaudit/cloudlog-collector/internal/domain/entity"
	"github.com/opsaudit/cloudlog-collector/internal/domain/repository"
)

const roleSessionName = "CloudLogCollector"

var defaultRegions = []string{"us-east-1", "us-east-2", "us-west-1", "us-west-2", "eu-west-1", "eu-central-1"}

// AWSRepositoryImpl collects CloudTrail events across accounts and regions,
// caching the per-account assumed-role config.
type AWSRepositoryImpl struct {
	baseCfg  *aws.Config
	cfgCache map[string]aws.Config
	mu       sync.Mutex
}

// NewAWSRepository creates a new implementation of the AWSRepository.
func NewAWSRepository() repository.AWSRepository {
	return &AWSRepositoryImpl{
		cfgCache: make(map[string]aws.Config),
	}
}

func (r *AWSRepositoryImpl) getBaseConfig(ctx context.Context) (aws.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.baseCfg != nil {
		return *r.baseCfg, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	r.baseCfg = &cfg
	return cfg, nil
}

// assumeRole returns an aws.Config carrying temporary credentials for the
// role in the target account.
func (r *AWSRepositoryImpl) assumeRole(ctx context.Context, accountID, roleName string) (aws.Config, error) {
	cacheKey := fmt.Sprintf("%s-%s", accountID, roleName)

	r.mu.Lock()
	if cfg, ok := r.cfgCache[cacheKey]; ok {
		r.mu.Unlock()
		return cfg, nil
	}
	r.mu.Unlock()

	baseCfg, err := r.getBaseConfig(ctx)
	if err != nil {
		return aws.Config{}, err
	}

	roleARN := fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, roleName)
	stsClient := sts.NewFromConfig(baseCfg)
	provider := stscreds.NewAssumeRoleProvider(stsClient, roleARN, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = roleSessionName
	})

	accountCfg := baseCfg.Copy()
	accountCfg.Credentials = aws.NewCredentialsCache(provider)

	r.mu.Lock()
	r.cfgCache[cacheKey] = accountCfg
	r.mu.Unlock()

	return accountCfg, nil
}

// listRegions enumerates the regions enabled for the account, falling back to
// a static list when DescribeRegions is not permitted.
func (r *AWSRepositoryImpl) listRegions(ctx context.Context, accountCfg aws.Config) []string {
	regionalCfg := accountCfg.Copy()
	regionalCfg.Region = "us-east-1"
	ec2Client := ec2.NewFromConfig(regionalCfg)

	out, err := ec2Client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{AllRegions: aws.Bool(false)})
	if err != nil {
		return defaultRegions
	}

	regions := make([]string, 0, len(out.Regions))
	for _, region := range out.Regions {
		regions = append(regions, *region.RegionName)
	}
	if len(regions) == 0 {
		return defaultRegions
	}
	return regions
}

// CollectCloudTrailEvents assumes the role in each account and pages through
// CloudTrail events in every region of the account concurrently. Failures are
// reported per account or region; they never abort the whole collection.
func (r *AWSRepositoryImpl) CollectCloudTrailEvents(ctx context.Context, accounts []string, roleName string, regions []string, window entity.TimeWindow) ([]entity.LogRecord, []string, error) {
	allEvents := []entity.LogRecord{}
	details := []string{}

	for _, accountID := range accounts {
		accountCfg, err := r.assumeRole(ctx, accountID, roleName)
		if err != nil {
			details = append(details, fmt.Sprintf("account %s: %s", accountID, err))
			continue
		}

		accountRegions := regions
		if len(accountRegions) == 0 {
			accountRegions = r.listRegions(ctx, accountCfg)
		}

		events, accountDetails := r.collectAccount(ctx, accountCfg, accountID, accountRegions, window)
		allEvents = append(allEvents, events...)
		details = append(details, accountDetails...)
	}

	return allEvents, details, nil
}

func (r *AWSRepositoryImpl) collectAccount(ctx context.Context, accountCfg aws.Config, accountID string, regions []string, window entity.TimeWindow) ([]entity.LogRecord, []string) {
	var (
		events  []entity.LogRecord
		details []string
		wg      sync.WaitGroup
		mu      sync.Mutex
	)

	for _, region := range regions {
		wg.Add(1)
		go func(rgn string) {
			defer wg.Done()

			regionalCfg := accountCfg.Copy()
			regionalCfg.Region = rgn
			client := cloudtrail.NewFromConfig(regionalCfg)

			regionEvents, err := lookupRegionEvents(ctx, client, accountID, rgn, window)

			mu.Lock()
			defer mu.Unlock()
			events = append(events, regionEvents...)
			if err != nil {
				// Opt-in regions answer with UnrecognizedClientException; the
				// account is still collectable everywhere else.
				details = append(details, fmt.Sprintf("account %s region %s: %s", accountID, rgn, err))
				return
			}
			details = append(details, fmt.Sprintf("account %s region %s: %d events", accountID, rgn, len(regionEvents)))
		}(region)
	}
	wg.Wait()

	return events, details
}

func lookupRegionEvents(ctx context.Context, client *cloudtrail.Client, accountID, region string, window entity.TimeWindow) ([]entity.LogRecord, error) {
	input := &cloudtrail.LookupEventsInput{
		StartTime: aws.Time(window.Start),
		EndTime:   aws.Time(window.End),
	}

	events := []entity.LogRecord{}
	paginator := cloudtrail.NewLookupEventsPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return events, err
		}
		for _, event := range page.Events {
			events = append(events, normalizeEvent(event, accountID, region))
		}
	}
	return events, nil
}

// normalizeEvent renders a CloudTrail event with the lookup API's field names,
// parsing the embedded CloudTrailEvent JSON document and formatting the event
// time as RFC3339. Account and region are carried so merged multi-account
// output stays attributable.
func normalizeEvent(event ctTypes.Event, accountID, region string) entity.LogRecord {
	rec := entity.LogRecord{
		"AccountId": accountID,
		"Region":    region,
	}
	if event.EventId != nil {
		rec["EventId"] = *event.EventId
	}
	if event.EventName != nil {
		rec["EventName"] = *event.EventName
	}
	if event.EventSource != nil {
		rec["EventSource"] = *event.EventSource
	}
	if event.EventTime != nil {
		rec["EventTime"] = event.EventTime.UTC().Format(time.RFC3339)
	}
	if event.Username != nil {
		rec["Username"] = *event.Username
	}
	if event.ReadOnly != nil {
		rec["ReadOnly"] = *event.ReadOnly
	}
	if event.AccessKeyId != nil {
		rec["AccessKeyId"] = *event.AccessKeyId
	}
	if len(event.Resources) > 0 {
		resources := make([]map[string]interface{}, 0, len(event.Resources))
		for _, res := range event.Resources {
			entry := map[string]interface{}{}
			if res.ResourceType != nil {
				entry["ResourceType"] = *res.ResourceType
			}
			if res.ResourceName != nil {
				entry["ResourceName"] = *res.ResourceName
			}
			resources = append(resources, entry)
		}
		rec["Resources"] = resources
	}
	if event.CloudTrailEvent != nil {
		var parsed map[string]interface{}
		if err := json.Unmarshal([]byte(*event.CloudTrailEvent), &parsed); err == nil {
			rec["CloudTrailEvent"] = parsed
		} else {
			rec["CloudTrailEvent"] = *event.CloudTrailEvent
		}
	}
	return rec
}
