package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zeyadrezk/rds-provisioner/internal/api/request"
	"github.com/zeyadrezk/rds-provisioner/internal/api/response"
	"github.com/zeyadrezk/rds-provisioner/internal/core"
	"github.com/zeyadrezk/rds-provisioner/internal/model"
)

type Database struct {
	svc  *core.DatabaseService
	prov *core.ProvisioningService
}

func NewDatabase(svc *core.DatabaseService, prov *core.ProvisioningService) *Database {
	return &Database{svc: svc, prov: prov}
}

func (h *Database) ListByClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := request.RequireID(chi.URLParam(r, "clientID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	databases, err := h.svc.ListByClient(r.Context(), clientID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, databases)
}

func (h *Database) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.ownedDatabase(w, r)
	if !ok {
		return
	}
	response.WriteJSON(w, http.StatusOK, d)
}

// ProvisionClient starts client-wide provisioning: one database per active
// subscribed service.
func (h *Database) ProvisionClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := request.RequireID(chi.URLParam(r, "clientID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.prov.RequestClientProvisioning(r.Context(), clientID); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "client provisioning started",
	})
}

// ProvisionService provisions a database for one (client, service) pair.
// The record is returned in queued state; progress is tracked through the
// status endpoint.
func (h *Database) ProvisionService(w http.ResponseWriter, r *http.Request) {
	clientID, err := request.RequireID(chi.URLParam(r, "clientID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	serviceID, err := request.RequireID(chi.URLParam(r, "serviceID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.prov.ProvisionServiceDatabase(r.Context(), clientID, serviceID)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusAccepted, d)
}

// CheckStatus runs one synchronous reconcile pass and reports the result.
func (h *Database) CheckStatus(w http.ResponseWriter, r *http.Request) {
	d, ok := h.ownedDatabase(w, r)
	if !ok {
		return
	}

	decision, err := h.prov.ReconcileDatabase(r.Context(), d.ID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if decision.Captured {
		if err := h.prov.FinalizeDatabase(r.Context(), d.ID); err != nil {
			response.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	d, err = h.svc.GetByID(r.Context(), d.ID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"database_id":         d.ID,
		"instance_identifier": d.InstanceIdentifier,
		"status":              d.Status,
		"provisioning_status": d.ProvisioningStatus,
	})
}

// Delete starts instance deletion. The record stays for audit; only the
// provider instance goes away. An empty body means a final snapshot with a
// derived identifier.
func (h *Database) Delete(w http.ResponseWriter, r *http.Request) {
	d, ok := h.ownedDatabase(w, r)
	if !ok {
		return
	}

	var req request.DeleteDatabase
	if err := request.Decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.prov.RequestDeletion(r.Context(), core.DeleteDatabaseParams{
		DatabaseID:        d.ID,
		SkipFinalSnapshot: req.SkipFinalSnapshot,
		FinalSnapshotID:   req.FinalSnapshotIdentifier,
	})
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "database deletion started",
	})
}

// ownedDatabase loads the database from the URL and enforces that it belongs
// to the client in the URL. Foreign ownership reads as not found.
func (h *Database) ownedDatabase(w http.ResponseWriter, r *http.Request) (*model.Database, bool) {
	clientID, err := request.RequireID(chi.URLParam(r, "clientID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	databaseID, err := request.RequireID(chi.URLParam(r, "databaseID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	d, err := h.svc.GetByID(r.Context(), databaseID)
	if err != nil || d.ClientID != clientID {
		response.WriteError(w, http.StatusNotFound, "database not found")
		return nil, false
	}
	return d, true
}
