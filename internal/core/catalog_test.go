package core

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCatalogCreate(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()

	template := "billing"
	service := testService(&template)

	var inserted []any
	db.On("Exec", ctx, sqlContains("INSERT INTO services"), mock.Anything).
		Run(func(args mock.Arguments) { inserted = args.Get(2).([]any) }).
		Return(pgconn.CommandTag{}, nil)

	catalog := NewServiceCatalog(db)
	require.NoError(t, catalog.Create(ctx, &service))
	require.Len(t, inserted, 7)
	assert.Equal(t, "billing", inserted[2])
	assert.Equal(t, &template, inserted[3])
}

func TestCatalogGetByID(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()

	db.On("QueryRow", ctx, sqlContains("FROM services WHERE"), mock.Anything).Return(serviceRow(testService(nil)))

	catalog := NewServiceCatalog(db)
	svc, err := catalog.GetByID(ctx, "service-1")
	require.NoError(t, err)
	assert.Equal(t, "billing", svc.Slug)
	assert.Nil(t, svc.SchemaTemplate)
}

func TestCatalogList(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()

	billing := testService(nil)
	crm := testService(nil)
	crm.ID = "service-2"
	crm.Slug = "crm"

	db.On("Query", ctx, sqlContains("FROM services ORDER BY"), mock.Anything).Return(newMockRows(
		serviceRow(billing).scanFunc,
		serviceRow(crm).scanFunc,
	), nil)

	catalog := NewServiceCatalog(db)
	services, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, []string{"billing", "crm"}, []string{services[0].Slug, services[1].Slug})
}
