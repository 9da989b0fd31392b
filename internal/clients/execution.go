package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bull/codebase-assistant/internal/config"
	"github.com/bull/codebase-assistant/internal/httpcall"
)

// ExecutionClient proxies the execution service.
type ExecutionClient struct {
	urls map[config.Environment]string
	exec *httpcall.Executor
}

func NewExecutionClient(urls map[config.Environment]string, exec *httpcall.Executor) *ExecutionClient {
	return &ExecutionClient{urls: urls, exec: exec}
}

func (c *ExecutionClient) GetExecutionDetails(ctx context.Context, req ExecutionDetailsRequest, env config.Environment) httpcall.CallResult {
	target := fmt.Sprintf("%s/ccp/execute/%s/details", environmentURL(c.urls, env), req.ExecutionID)
	return c.exec.Execute(ctx, http.MethodGet, target, nil, nil)
}
