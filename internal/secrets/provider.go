// Package secrets resolves external service credentials from AWS Secrets
// Manager, with a fixed local table for development environments where no
// AWS access is available.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// ErrSecretNotFound is returned when a secret exists neither in the store
// nor in the local fallback table.
var ErrSecretNotFound = errors.New("secret not found")

// Credential is a decoded secret payload.
type Credential map[string]any

// String returns the named field as a string, or "" when absent or not a
// string.
func (c Credential) String(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the named field as an int. JSON numbers decode as float64,
// so both forms are accepted.
func (c Credential) Int(key string) int {
	switch v := c[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Provider fetches a credential by secret name.
type Provider interface {
	GetSecret(ctx context.Context, name string) (Credential, error)
}

// secretsAPI is the slice of the Secrets Manager client we use.
type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ManagerProvider reads secrets from AWS Secrets Manager. A secret the
// store cannot serve, whether missing or because the store itself is
// unreachable, falls back to the local table; credentials are never
// cached between calls.
type ManagerProvider struct {
	api      secretsAPI
	fallback map[string]Credential
	logger   *slog.Logger
}

// NewManagerProvider builds a provider for the given region. When AWS
// configuration cannot be loaded the provider serves the local table
// only.
func NewManagerProvider(ctx context.Context, region string, logger *slog.Logger) *ManagerProvider {
	p := &ManagerProvider{fallback: localSecrets(), logger: logger}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		logger.Warn("aws configuration unavailable, serving local secrets only", "error", err)
		return p
	}
	p.api = secretsmanager.NewFromConfig(cfg)
	return p
}

// NewStaticProvider serves only the local fallback table. Used in tests
// and offline development.
func NewStaticProvider(logger *slog.Logger) *ManagerProvider {
	return &ManagerProvider{fallback: localSecrets(), logger: logger}
}

func (p *ManagerProvider) GetSecret(ctx context.Context, name string) (Credential, error) {
	if p.api == nil {
		return p.local(name)
	}

	out, err := p.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &name})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			p.logger.Warn("secret not found in store, trying local table", "secret", name)
		} else {
			p.logger.Error("secrets manager request failed, trying local table", "secret", name, "error", err)
		}
		return p.local(name)
	}
	if out.SecretString == nil {
		p.logger.Warn("secret has no string payload, trying local table", "secret", name)
		return p.local(name)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(*out.SecretString), &cred); err != nil {
		return nil, fmt.Errorf("decode secret %q: %w", name, err)
	}
	return cred, nil
}

func (p *ManagerProvider) local(name string) (Credential, error) {
	cred, ok := p.fallback[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	p.logger.Info("serving local secret", "secret", name)
	return cred, nil
}

// localSecrets returns a fresh copy of the development table so callers
// cannot mutate shared state.
func localSecrets() map[string]Credential {
	return map[string]Credential{
		"database/qa/credentials": {
			"username": "qa_user", "password": "qa_password",
			"engine": "postgresql", "host": "qa-db.example.com",
			"port": 5432, "dbInstanceIdentifier": "qa-db-instance",
		},
		"database/beta/credentials": {
			"username": "beta_user", "password": "beta_password",
			"engine": "postgresql", "host": "beta-db.example.com",
			"port": 5432, "dbInstanceIdentifier": "beta-db-instance",
		},
		"database/prod/credentials": {
			"username": "prod_user", "password": "prod_password",
			"engine": "postgresql", "host": "prod-db.example.com",
			"port": 5432, "dbInstanceIdentifier": "prod-db-instance",
		},
		"databricks/qa/sp_ccp": {
			"db_host": "https://dbc-b3e2823d-6d7a.cloud.databricks.com",
			"token":   "qa_databricks_token",
		},
		"databricks/beta/sp_ccp": {
			"db_host": "https://dbc-bdecc1d6-b083.cloud.databricks.com",
			"token":   "beta_databricks_token",
		},
		"databricks/prod/sp_ccp": {
			"db_host": "https://dbc-prod-workspace.cloud.databricks.com",
			"token":   "prod_databricks_token",
		},
	}
}
