package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bull/codebase-assistant/internal/config"
	"github.com/bull/codebase-assistant/internal/secrets"
)

var (
	lineCommentRe  = regexp.MustCompile(`(?m)--.*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// dbConn is the slice of a pgx connection the client uses.
type dbConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close(ctx context.Context) error
}

// DatabaseClient runs read-only queries against the environment's
// relational database, resolving credentials per call.
type DatabaseClient struct {
	provider    secrets.Provider
	secretNames map[config.Environment]string
	dbNames     map[config.Environment]string
	logger      *slog.Logger

	// connect is swapped out in tests.
	connect func(ctx context.Context, dsn string) (dbConn, error)
}

func NewDatabaseClient(secretNames, dbNames map[config.Environment]string, provider secrets.Provider, logger *slog.Logger) *DatabaseClient {
	return &DatabaseClient{
		provider:    provider,
		secretNames: secretNames,
		dbNames:     dbNames,
		logger:      logger,
		connect: func(ctx context.Context, dsn string) (dbConn, error) {
			return pgx.Connect(ctx, dsn)
		},
	}
}

// isSelectQuery reports whether the statement, with comments stripped, is
// a SELECT.
func isSelectQuery(query string) bool {
	clean := lineCommentRe.ReplaceAllString(query, "")
	clean = blockCommentRe.ReplaceAllString(clean, "")
	clean = strings.ToUpper(strings.TrimSpace(whitespaceRe.ReplaceAllString(clean, " ")))
	return strings.HasPrefix(clean, "SELECT")
}

// ExecuteQuery validates, connects and runs the query. Failures come back
// inside the QueryResult.
func (c *DatabaseClient) ExecuteQuery(ctx context.Context, query string, env config.Environment) QueryResult {
	start := time.Now()

	fail := func(msg string) QueryResult {
		return QueryResult{Success: false, Error: msg, ElapsedSeconds: time.Since(start).Seconds()}
	}

	if !isSelectQuery(query) {
		return fail("Only SELECT statements are allowed. Query contains forbidden keywords or is not a SELECT statement.")
	}

	cred, err := c.provider.GetSecret(ctx, c.secretNames[env])
	if err != nil {
		c.logger.Error("database credential lookup failed", "environment", env, "error", err)
		return fail(fmt.Sprintf("failed to fetch database credentials for environment: %s", env))
	}

	port := cred.Int("port")
	if port == 0 {
		port = 5432
	}
	// url.UserPassword escapes credentials; rotated passwords routinely
	// contain DSN-breaking characters.
	dsnURL := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cred.String("username"), cred.String("password")),
		Host:   fmt.Sprintf("%s:%d", cred.String("host"), port),
		Path:   "/" + c.dbNames[env],
	}
	dsn := dsnURL.String()

	conn, err := c.connect(ctx, dsn)
	if err != nil {
		c.logger.Error("database connection failed", "environment", env, "error", err)
		return fail(fmt.Sprintf("PostgreSQL error: %s", err))
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return fail(fmt.Sprintf("PostgreSQL error: %s", err))
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	data := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return fail(fmt.Sprintf("PostgreSQL error: %s", err))
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return fail(fmt.Sprintf("PostgreSQL error: %s", err))
	}

	return QueryResult{
		Success:        true,
		Data:           data,
		RowCount:       len(data),
		ElapsedSeconds: time.Since(start).Seconds(),
	}
}
