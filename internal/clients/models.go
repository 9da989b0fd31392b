// Package clients holds thin clients for the enterprise services the
// assistant proxies: the project graph, the execution service, the
// analytics platform and the relational database.
package clients

import "github.com/bull/codebase-assistant/internal/config"

// GraphEntityRequest identifies a set of graph entities.
type GraphEntityRequest struct {
	BranchName  string `json:"branch_name"`
	EntityName  string `json:"ccp_entity_name"`
	ProjectName string `json:"project_name"`
}

// LinkStatusRequest identifies a project whose link status is queried.
type LinkStatusRequest struct {
	ProjectID string `json:"project_id"`
}

// ExecutionDetailsRequest identifies an execution run.
type ExecutionDetailsRequest struct {
	ExecutionID string `json:"execution_id"`
}

// ClientSetupStatusRequest identifies a client on the analytics platform.
type ClientSetupStatusRequest struct {
	ClientID string             `json:"client_id"`
	Env      config.Environment `json:"env"`
}

// JobRunDetailsRequest identifies an analytics job run.
type JobRunDetailsRequest struct {
	Env   config.Environment `json:"env"`
	RunID string             `json:"run_id"`
}

// DatabaseQueryRequest carries a read-only SQL query.
type DatabaseQueryRequest struct {
	Query string             `json:"query"`
	Env   config.Environment `json:"env"`
}

// QueryResult is the outcome of a database query. Like CallResult it is
// always a value, never an error.
type QueryResult struct {
	Success        bool             `json:"success"`
	Data           []map[string]any `json:"data"`
	Error          string           `json:"error,omitempty"`
	RowCount       int              `json:"row_count"`
	ElapsedSeconds float64          `json:"execution_time"`
}

// environmentURL picks the base URL for env, defaulting to prod when the
// environment has no entry.
func environmentURL(urls map[config.Environment]string, env config.Environment) string {
	if u, ok := urls[env]; ok {
		return u
	}
	return urls[config.EnvProd]
}
