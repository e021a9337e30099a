package schema

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

func endpointDatabase(engine string) *model.Database {
	host := "db.example.com"
	port := 5432
	return &model.Database{
		ID:                 "database-1",
		InstanceIdentifier: "prod-acme-billing",
		DatabaseName:       "client_acme_billing_db",
		Username:           "acme_billing_use",
		Password:           "p@ss/word",
		Engine:             engine,
		Host:               &host,
		Port:               &port,
	}
}

func TestInitialize_TemplateNotFound(t *testing.T) {
	b := NewBootstrapper(t.TempDir(), zerolog.Nop())

	err := b.Initialize(context.Background(), endpointDatabase("postgres"), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestConnectionDSN_Postgres(t *testing.T) {
	driver, dsn, err := connectionDSN(endpointDatabase("postgres"))
	require.NoError(t, err)
	assert.Equal(t, "pgx", driver)
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.example.com:5432")
	assert.Contains(t, dsn, "client_acme_billing_db")
	assert.Contains(t, dsn, "sslmode=prefer")
	// Password with reserved characters must be escaped.
	assert.NotContains(t, dsn, "p@ss/word")
}

func TestConnectionDSN_MySQL(t *testing.T) {
	driver, dsn, err := connectionDSN(endpointDatabase("mysql"))
	require.NoError(t, err)
	assert.Equal(t, "mysql", driver)
	assert.Equal(t, "acme_billing_use:p@ss/word@tcp(db.example.com:5432)/client_acme_billing_db?multiStatements=true", dsn)
}

func TestConnectionDSN_UnsupportedEngine(t *testing.T) {
	_, _, err := connectionDSN(endpointDatabase("oracle"))
	assert.Error(t, err)
}

func TestConnectionDSN_RequiresEndpoint(t *testing.T) {
	database := endpointDatabase("postgres")
	database.Host = nil
	_, _, err := connectionDSN(database)
	assert.Error(t, err)
}
