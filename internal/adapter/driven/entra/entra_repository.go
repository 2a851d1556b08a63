package entra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/opsaudit/cloudlog-collector/internal/domain/entity"
	"github.com/opsaudit/cloudlog-collector/internal/domain/repository"
)

const (
	defaultGraphBaseURL = "https://graph.microsoft.com/v1.0"
	graphScope          = "https://graph.microsoft.com/.default"
)

// EntraRepositoryImpl collects Entra ID sign-in logs from the Microsoft Graph
// audit log endpoint. Graph is queried over plain REST so the records keep
// their raw wire schema.
type EntraRepositoryImpl struct {
	credential azcore.TokenCredential
	httpClient *http.Client
	baseURL    string
}

// Option customizes the EntraRepository, used by tests to point it at a stub
// Graph server.
type Option func(*EntraRepositoryImpl)

// WithCredential replaces the default Azure CLI credential.
func WithCredential(credential azcore.TokenCredential) Option {
	return func(r *EntraRepositoryImpl) { r.credential = credential }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *EntraRepositoryImpl) { r.httpClient = client }
}

// WithBaseURL replaces the Graph endpoint.
func WithBaseURL(baseURL string) Option {
	return func(r *EntraRepositoryImpl) { r.baseURL = baseURL }
}

// NewEntraRepository creates a new implementation of the EntraRepository.
func NewEntraRepository(opts ...Option) repository.EntraRepository {
	repo := &EntraRepositoryImpl{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    defaultGraphBaseURL,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *EntraRepositoryImpl) getToken(ctx context.Context) (string, error) {
	if r.credential == nil {
		cred, err := azidentity.NewAzureCLICredential(nil)
		if err != nil {
			return "", fmt.Errorf("failed to create Azure CLI credential: %w", err)
		}
		r.credential = cred
	}
	token, err := r.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{graphScope}})
	if err != nil {
		return "", fmt.Errorf("failed to get Microsoft Graph token: %w", err)
	}
	return token.Token, nil
}

// CollectSignInLogs queries the sign-in log within the window and follows
// @odata.nextLink continuation pages until the server stops returning one.
func (r *EntraRepositoryImpl) CollectSignInLogs(ctx context.Context, window entity.TimeWindow) ([]entity.LogRecord, error) {
	token, err := r.getToken(ctx)
	if err != nil {
		return nil, err
	}

	filter := fmt.Sprintf("createdDateTime ge %s and createdDateTime le %s",
		graphTimestamp(window.Start), graphTimestamp(window.End))
	query := url.Values{"$filter": []string{filter}}
	next := fmt.Sprintf("%s/auditLogs/signIns?%s", r.baseURL, query.Encode())

	records := []entity.LogRecord{}
	for next != "" {
		page, nextLink, err := r.fetchPage(ctx, next, token)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
		next = nextLink
	}

	return records, nil
}

func (r *EntraRepositoryImpl) fetchPage(ctx context.Context, pageURL, token string) ([]entity.LogRecord, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build sign-in logs request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("sign-in logs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", fmt.Errorf("failed to retrieve sign-in logs: status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Value    []entity.LogRecord `json:"value"`
		NextLink string             `json:"@odata.nextLink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("failed to decode sign-in logs response: %w", err)
	}

	return payload.Value, payload.NextLink, nil
}

// graphTimestamp renders a Graph $filter timestamp: millisecond precision,
// trailing Z.
func graphTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
