package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zeyadrezk/rds-provisioner/internal/model"
	"github.com/zeyadrezk/rds-provisioner/internal/platform"
)

func TestClientCreateAndGet(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()

	now := time.Now().UTC()
	client := &model.Client{
		ID:        platform.NewID(),
		Name:      "Acme",
		Slug:      "acme",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var inserted []any
	db.On("Exec", ctx, sqlContains("INSERT INTO clients"), mock.Anything).
		Run(func(args mock.Arguments) { inserted = args.Get(2).([]any) }).
		Return(pgconn.CommandTag{}, nil)

	svc := NewClientService(db)
	require.NoError(t, svc.Create(ctx, client))
	require.Len(t, inserted, 6)
	assert.Equal(t, "acme", inserted[2])

	db.On("QueryRow", ctx, sqlContains("FROM clients"), mock.Anything).Return(clientRow(*client))
	got, err := svc.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, client.Slug, got.Slug)
	assert.True(t, got.IsActive)
}

func TestClientSubscribe(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()

	db.On("Exec", ctx, sqlContains("ON CONFLICT"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	svc := NewClientService(db)
	require.NoError(t, svc.Subscribe(ctx, "client-1", "service-1"))
	db.AssertExpectations(t)
}

func TestClientIsSubscribed(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()

	db.On("QueryRow", ctx, sqlContains("FROM client_services"), mock.Anything).Return(boolRow(true))

	svc := NewClientService(db)
	subscribed, err := svc.IsSubscribed(ctx, "client-1", "service-1")
	require.NoError(t, err)
	assert.True(t, subscribed)
}

func TestClientListActiveServices(t *testing.T) {
	db := &mockDB{}
	ctx := context.Background()

	billing := testService(nil)
	crm := testService(nil)
	crm.ID = "service-2"
	crm.Slug = "crm"

	db.On("Query", ctx, sqlContains("JOIN client_services"), mock.Anything).Return(newMockRows(
		serviceRow(billing).scanFunc,
		serviceRow(crm).scanFunc,
	), nil)

	svc := NewClientService(db)
	services, err := svc.ListActiveServices(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "billing", services[0].Slug)
	assert.Equal(t, "crm", services[1].Slug)
}
