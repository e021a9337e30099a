package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zeyadrezk/rds-provisioner/internal/api/request"
	"github.com/zeyadrezk/rds-provisioner/internal/api/response"
	"github.com/zeyadrezk/rds-provisioner/internal/core"
	"github.com/zeyadrezk/rds-provisioner/internal/model"
	"github.com/zeyadrezk/rds-provisioner/internal/platform"
)

type Client struct {
	svc *core.ClientService
}

func NewClient(svc *core.ClientService) *Client {
	return &Client{svc: svc}
}

func (h *Client) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateClient
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now().UTC()
	client := &model.Client{
		ID:        platform.NewID(),
		Name:      req.Name,
		Slug:      req.Slug,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.svc.Create(r.Context(), client); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusCreated, client)
}

func (h *Client) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "clientID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, client)
}

// Subscribe activates the client's subscription to a service. Subscribing
// again reactivates a previously deactivated subscription.
func (h *Client) Subscribe(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.svc.GetByID(r.Context(), clientID); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.svc.Subscribe(r.Context(), clientID, serviceID); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"message": "subscription active"})
}
