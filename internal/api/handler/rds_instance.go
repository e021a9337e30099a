package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zeyadrezk/rds-provisioner/internal/api/request"
	"github.com/zeyadrezk/rds-provisioner/internal/api/response"
	"github.com/zeyadrezk/rds-provisioner/internal/core"
)

type RDSInstance struct {
	svc *core.RDSInstanceService
}

func NewRDSInstance(svc *core.RDSInstanceService) *RDSInstance {
	return &RDSInstance{svc: svc}
}

// Create provisions an instance on the direct management path with
// caller-supplied credentials.
func (h *RDSInstance) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRDSInstance
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inst, err := h.svc.Create(r.Context(), core.CreateRDSInstanceParams{
		ClientID:        req.ClientID,
		DatabaseName:    req.DBName,
		Username:        req.Username,
		Password:        req.Password,
		SubnetGroupName: req.SubnetGroupName,
	})
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusCreated, inst)
}

func (h *RDSInstance) List(w http.ResponseWriter, r *http.Request) {
	instances, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, instances)
}

func (h *RDSInstance) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inst, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, inst)
}

func (h *RDSInstance) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "rds instance deletion initiated",
	})
}
