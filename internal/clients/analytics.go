package clients

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bull/codebase-assistant/internal/config"
	"github.com/bull/codebase-assistant/internal/httpcall"
	"github.com/bull/codebase-assistant/internal/secrets"
)

// AnalyticsClient proxies the analytics platform. Every call resolves a
// service principal credential first; credentials are fetched fresh per
// request, never cached.
type AnalyticsClient struct {
	urls        map[config.Environment]string
	secretNames map[config.Environment]string
	provider    secrets.Provider
	exec        *httpcall.Executor
}

func NewAnalyticsClient(urls, secretNames map[config.Environment]string, provider secrets.Provider, exec *httpcall.Executor) *AnalyticsClient {
	return &AnalyticsClient{urls: urls, secretNames: secretNames, provider: provider, exec: exec}
}

func (c *AnalyticsClient) credentials(ctx context.Context, env config.Environment) (secrets.Credential, *httpcall.CallResult) {
	cred, err := c.provider.GetSecret(ctx, c.secretNames[env])
	if err != nil {
		return nil, &httpcall.CallResult{
			Success:    false,
			Error:      fmt.Sprintf("failed to fetch analytics credentials for environment: %s", env),
			StatusCode: http.StatusInternalServerError,
		}
	}
	if cred.String("db_host") == "" || cred.String("token") == "" {
		return nil, &httpcall.CallResult{
			Success:    false,
			Error:      "missing required analytics credentials (db_host or token)",
			StatusCode: http.StatusInternalServerError,
		}
	}
	return cred, nil
}

// GetClientSetupStatus reads a client's setup status from the analytics
// control service.
func (c *AnalyticsClient) GetClientSetupStatus(ctx context.Context, req ClientSetupStatusRequest) httpcall.CallResult {
	cred, fail := c.credentials(ctx, req.Env)
	if fail != nil {
		return *fail
	}

	target := fmt.Sprintf("%s/clientSetup/v1/status/%s", environmentURL(c.urls, req.Env), req.ClientID)
	return c.exec.ExecuteWithHeaders(ctx, http.MethodGet, target, nil, nil,
		map[string]string{"Authorization": "Bearer " + cred.String("token")})
}

// GetJobRunDetails reads a job run from the analytics workspace API. The
// workspace host comes from the credential itself, not from configuration.
func (c *AnalyticsClient) GetJobRunDetails(ctx context.Context, req JobRunDetailsRequest) httpcall.CallResult {
	cred, fail := c.credentials(ctx, req.Env)
	if fail != nil {
		return *fail
	}

	host := cred.String("db_host")
	if !strings.HasPrefix(host, "http") {
		host = "https://" + host
	}
	host = strings.TrimSuffix(host, "/")

	target := fmt.Sprintf("%s/api/2.0/jobs/runs/get?run_id=%s", host, req.RunID)
	return c.exec.ExecuteWithHeaders(ctx, http.MethodGet, target, nil, nil,
		map[string]string{"Authorization": "Bearer " + cred.String("token")})
}
