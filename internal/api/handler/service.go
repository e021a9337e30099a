package handler

import (
	"net/http"
	"time"

	"github.com/zeyadrezk/rds-provisioner/internal/api/request"
	"github.com/zeyadrezk/rds-provisioner/internal/api/response"
	"github.com/zeyadrezk/rds-provisioner/internal/core"
	"github.com/zeyadrezk/rds-provisioner/internal/model"
	"github.com/zeyadrezk/rds-provisioner/internal/platform"
)

type Service struct {
	svc *core.ServiceCatalog
}

func NewService(svc *core.ServiceCatalog) *Service {
	return &Service{svc: svc}
}

func (h *Service) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateService
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	service := &model.Service{
		ID:             platform.NewID(),
		Name:           req.Name,
		Slug:           req.Slug,
		SchemaTemplate: req.SchemaTemplate,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.svc.Create(r.Context(), service); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusCreated, service)
}

func (h *Service) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, services)
}
