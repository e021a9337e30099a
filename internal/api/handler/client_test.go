package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zeyadrezk/rds-provisioner/internal/core"
	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

// --- Create ---

func TestClientCreate_InvalidJSON(t *testing.T) {
	h := NewClient(nil)
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodPost, "/clients", "{bad json")

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestClientCreate_MissingSlug(t *testing.T) {
	h := NewClient(nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/clients", map[string]any{"name": "Acme"})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "validation error")
}

func TestClientCreate_InvalidSlug(t *testing.T) {
	h := NewClient(nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/clients", map[string]any{
		"name": "Acme",
		"slug": "Not A Slug!",
	})

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientCreate_Success(t *testing.T) {
	db := &handlerMockDB{}
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, nil)

	h := NewClient(core.NewClientService(db))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/clients", map[string]any{
		"name": "Acme Corp",
		"slug": "acme",
	})

	h.Create(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Client
	require.NoError(t, decodeJSONBody(rec, &created))
	assert.Equal(t, "acme", created.Slug)
	assert.True(t, created.IsActive)
	assert.NotEmpty(t, created.ID)
}

// --- Get ---

func TestClientGet_EmptyID(t *testing.T) {
	h := NewClient(nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/clients/", nil)
	r = withChiURLParam(r, "clientID", "")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

func TestClientGet_NotFound(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&handlerMockRow{scanFunc: func(dest ...any) error { return errors.New("no rows in result set") }})

	h := NewClient(core.NewClientService(db))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/clients/missing", nil)
	r = withChiURLParam(r, "clientID", "missing")

	h.Get(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientGet_Success(t *testing.T) {
	now := time.Now().UTC()
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&handlerMockRow{scanFunc: func(dest ...any) error {
			*dest[0].(*string) = "client-1"
			*dest[1].(*string) = "Acme"
			*dest[2].(*string) = "acme"
			*dest[3].(*bool) = true
			*dest[4].(*time.Time) = now
			*dest[5].(*time.Time) = now
			return nil
		}})

	h := NewClient(core.NewClientService(db))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/clients/client-1", nil)
	r = withChiURLParam(r, "clientID", "client-1")

	h.Get(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var client model.Client
	require.NoError(t, decodeJSONBody(rec, &client))
	assert.Equal(t, "acme", client.Slug)
}

// --- Subscribe ---

func TestClientSubscribe_MissingServiceID(t *testing.T) {
	h := NewClient(nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/clients/client-1/services//subscription", nil)
	r = withChiURLParams(r, map[string]string{"clientID": "client-1", "serviceID": ""})

	h.Subscribe(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientSubscribe_UnknownClient(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&handlerMockRow{scanFunc: func(dest ...any) error { return errors.New("no rows in result set") }})

	h := NewClient(core.NewClientService(db))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/clients/missing/services/service-1/subscription", nil)
	r = withChiURLParams(r, map[string]string{"clientID": "missing", "serviceID": "service-1"})

	h.Subscribe(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}
