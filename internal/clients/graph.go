package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bull/codebase-assistant/internal/config"
	"github.com/bull/codebase-assistant/internal/httpcall"
)

// GraphClient proxies the project graph service: entity lookups and
// project link status.
type GraphClient struct {
	urls map[config.Environment]string
	exec *httpcall.Executor
}

func NewGraphClient(urls map[config.Environment]string, exec *httpcall.Executor) *GraphClient {
	return &GraphClient{urls: urls, exec: exec}
}

func (c *GraphClient) GetGraphEntities(ctx context.Context, req GraphEntityRequest, env config.Environment) httpcall.CallResult {
	target := environmentURL(c.urls, env) + "/ccp/project/entities"
	params := url.Values{
		"branchName":    {req.BranchName},
		"ccpEntityName": {req.EntityName},
		"projectName":   {req.ProjectName},
	}
	return c.exec.Execute(ctx, http.MethodGet, target, params, nil)
}

func (c *GraphClient) GetLinkStatus(ctx context.Context, req LinkStatusRequest, env config.Environment) httpcall.CallResult {
	target := fmt.Sprintf("%s/ccp/project/status/%s", environmentURL(c.urls, env), req.ProjectID)
	return c.exec.Execute(ctx, http.MethodGet, target, nil, nil)
}
