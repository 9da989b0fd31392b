package secrets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	out *secretsmanager.GetSecretValueOutput
	err error
}

func (f *fakeAPI) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return f.out, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func secretString(s string) *secretsmanager.GetSecretValueOutput {
	return &secretsmanager.GetSecretValueOutput{SecretString: &s}
}

func TestGetSecretFromStore(t *testing.T) {
	p := &ManagerProvider{
		api:      &fakeAPI{out: secretString(`{"db_host":"https://dbx.example.com","token":"t-1"}`)},
		fallback: localSecrets(),
		logger:   testLogger(),
	}

	cred, err := p.GetSecret(context.Background(), "databricks/prod/sp_ccp")
	require.NoError(t, err)
	assert.Equal(t, "https://dbx.example.com", cred.String("db_host"))
	assert.Equal(t, "t-1", cred.String("token"))
}

func TestGetSecretNotFoundFallsBack(t *testing.T) {
	p := &ManagerProvider{
		api:      &fakeAPI{err: &types.ResourceNotFoundException{}},
		fallback: localSecrets(),
		logger:   testLogger(),
	}

	cred, err := p.GetSecret(context.Background(), "databricks/beta/sp_ccp")
	require.NoError(t, err)
	assert.Equal(t, "beta_databricks_token", cred.String("token"))
}

func TestGetSecretStoreErrorFallsBack(t *testing.T) {
	p := &ManagerProvider{
		api:      &fakeAPI{err: errors.New("dial tcp: connection refused")},
		fallback: localSecrets(),
		logger:   testLogger(),
	}

	cred, err := p.GetSecret(context.Background(), "database/qa/credentials")
	require.NoError(t, err)
	assert.Equal(t, "qa_user", cred.String("username"))
	assert.Equal(t, 5432, cred.Int("port"))
}

func TestGetSecretAbsentEverywhere(t *testing.T) {
	p := &ManagerProvider{
		api:      &fakeAPI{err: &types.ResourceNotFoundException{}},
		fallback: localSecrets(),
		logger:   testLogger(),
	}

	_, err := p.GetSecret(context.Background(), "rds/prod/ccp-prod-psql")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestStaticProviderServesLocalTable(t *testing.T) {
	p := NewStaticProvider(testLogger())

	cred, err := p.GetSecret(context.Background(), "database/prod/credentials")
	require.NoError(t, err)
	assert.Equal(t, "prod-db.example.com", cred.String("host"))

	_, err = p.GetSecret(context.Background(), "missing/secret")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestCredentialFieldHelpers(t *testing.T) {
	c := Credential{"host": "db", "port": float64(5432), "count": 3}
	assert.Equal(t, "db", c.String("host"))
	assert.Equal(t, "", c.String("port"))
	assert.Equal(t, 5432, c.Int("port"))
	assert.Equal(t, 3, c.Int("count"))
	assert.Equal(t, 0, c.Int("missing"))
}
