package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zeyadrezk/rds-provisioner/internal/core"
	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

func TestServiceCreate_InvalidJSON(t *testing.T) {
	h := NewService(nil)
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/services", "{bad json")

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServiceCreate_MissingName(t *testing.T) {
	h := NewService(nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/services", map[string]any{"slug": "billing"})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestServiceCreate_Success(t *testing.T) {
	db := &handlerMockDB{}
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, nil)

	h := NewService(core.NewServiceCatalog(db))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/services", map[string]any{
		"name":            "Billing",
		"slug":            "billing",
		"schema_template": "billing",
	})

	h.Create(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Service
	require.NoError(t, decodeJSONBody(rec, &created))
	assert.Equal(t, "billing", created.Slug)
	require.NotNil(t, created.SchemaTemplate)
	assert.Equal(t, "billing", *created.SchemaTemplate)
	assert.True(t, created.IsActive)
}
