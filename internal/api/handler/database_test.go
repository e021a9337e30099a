package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	temporalmocks "go.temporal.io/sdk/mocks"

	"github.com/zeyadrezk/rds-provisioner/internal/config"
	"github.com/zeyadrezk/rds-provisioner/internal/core"
	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

func handlerDatabaseRow(d model.Database) *handlerMockRow {
	return &handlerMockRow{scanFunc: func(dest ...any) error {
		*dest[0].(*string) = d.ID
		*dest[1].(*string) = d.ClientID
		*dest[2].(**string) = d.ServiceID
		*dest[3].(*string) = d.Name
		*dest[4].(*string) = d.InstanceIdentifier
		*dest[5].(**string) = d.Host
		*dest[6].(**int) = d.Port
		*dest[7].(*string) = d.DatabaseName
		*dest[8].(*string) = d.Username
		*dest[9].(*string) = d.Password
		*dest[10].(*string) = d.Status
		*dest[11].(**string) = d.RDSInstanceID
		*dest[12].(*string) = d.Engine
		*dest[13].(*string) = d.EngineVersion
		*dest[14].(*string) = d.InstanceClass
		*dest[15].(*string) = d.StorageType
		*dest[16].(*int) = d.AllocatedStorage
		*dest[17].(*bool) = d.Encrypted
		*dest[18].(*string) = d.ProvisioningStatus
		*dest[19].(**string) = d.ErrorMessage
		*dest[20].(*time.Time) = d.CreatedAt
		*dest[21].(*time.Time) = d.UpdatedAt
		return nil
	}}
}

func storedDatabase() model.Database {
	now := time.Now().UTC()
	serviceID := "service-1"
	return model.Database{
		ID:                 "database-1",
		ClientID:           "client-1",
		ServiceID:          &serviceID,
		Name:               "client_acme_billing_db",
		InstanceIdentifier: "prod-acme-billing",
		DatabaseName:       "client_acme_billing_db",
		Username:           "acme_billing_use",
		Password:           "secret",
		Status:             model.InstanceStatusCreating,
		Engine:             "postgres",
		EngineVersion:      "16.3",
		InstanceClass:      "db.t3.micro",
		StorageType:        "gp2",
		AllocatedStorage:   20,
		ProvisioningStatus: model.ProvisioningCreating,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// --- Get ---

func TestDatabaseGet_ForeignOwnershipReadsAsNotFound(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(handlerDatabaseRow(storedDatabase()))

	h := NewDatabase(core.NewDatabaseService(db), nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/clients/other-client/databases/database-1", nil)
	r = withChiURLParams(r, map[string]string{"clientID": "other-client", "databaseID": "database-1"})

	h.Get(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Equal(t, "database not found", body["error"])
}

func TestDatabaseGet_Success(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(handlerDatabaseRow(storedDatabase()))

	h := NewDatabase(core.NewDatabaseService(db), nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/clients/client-1/databases/database-1", nil)
	r = withChiURLParams(r, map[string]string{"clientID": "client-1", "databaseID": "database-1"})

	h.Get(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	var d model.Database
	require.NoError(t, decodeJSONBody(rec, &d))
	assert.Equal(t, "prod-acme-billing", d.InstanceIdentifier)
}

func TestDatabaseGet_EmptyDatabaseID(t *testing.T) {
	h := NewDatabase(nil, nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/clients/client-1/databases/", nil)
	r = withChiURLParams(r, map[string]string{"clientID": "client-1", "databaseID": ""})

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- ProvisionService ---

func TestDatabaseProvisionService_EmptyServiceID(t *testing.T) {
	h := NewDatabase(nil, nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/clients/client-1/services//database", nil)
	r = withChiURLParams(r, map[string]string{"clientID": "client-1", "serviceID": ""})

	h.ProvisionService(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Delete ---

func TestDatabaseDelete_EmptyBodyStartsDeletion(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(handlerDatabaseRow(storedDatabase()))

	tc := &temporalmocks.Client{}
	tc.On("ExecuteWorkflow", mock.Anything, mock.Anything, "DeleteDatabaseWorkflow", mock.Anything).
		Return(&temporalmocks.WorkflowRun{}, nil)

	prov := core.NewProvisioningService(db, tc, nil, nil, nil, &config.Config{}, zerolog.Nop())
	h := NewDatabase(core.NewDatabaseService(db), prov)
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodDelete, "/clients/client-1/databases/database-1", "")
	r = withChiURLParams(r, map[string]string{"clientID": "client-1", "databaseID": "database-1"})

	h.Delete(rec, r)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	tc.AssertExpectations(t)
}

func TestDatabaseDelete_InvalidBody(t *testing.T) {
	db := &handlerMockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(handlerDatabaseRow(storedDatabase()))

	h := NewDatabase(core.NewDatabaseService(db), nil)
	rec := httptest.NewRecorder()
	r := newRequestRaw(http.MethodDelete, "/clients/client-1/databases/database-1", "{bad json")
	r = withChiURLParams(r, map[string]string{"clientID": "client-1", "databaseID": "database-1"})

	h.Delete(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
