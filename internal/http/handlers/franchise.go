package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pizzanet/pizza-service/internal/auth"
	"github.com/pizzanet/pizza-service/internal/franchises"
	"github.com/pizzanet/pizza-service/internal/http/respond"
	"github.com/pizzanet/pizza-service/internal/middleware"
	"github.com/pizzanet/pizza-service/internal/models"
	"github.com/pizzanet/pizza-service/internal/models/dto"
)

// FranchiseHandler owns the /api/franchise endpoints.
type FranchiseHandler struct {
	svc *franchises.Service
}

// NewFranchiseHandler constructs the handler.
func NewFranchiseHandler(svc *franchises.Service) *FranchiseHandler {
	return &FranchiseHandler{svc: svc}
}

// Register attaches franchise routes to the mux.
func (h *FranchiseHandler) Register(mux *http.ServeMux, authn *middleware.Authenticator) {
	mux.HandleFunc("GET /api/franchise", h.handleList)
	mux.HandleFunc("POST /api/franchise", authn.Require(h.handleCreate))
	mux.HandleFunc("GET /api/franchise/{userId}", authn.Require(h.handleListForUser))
	mux.HandleFunc("DELETE /api/franchise/{id}", authn.Require(h.handleDelete))
	mux.HandleFunc("POST /api/franchise/{id}/store", authn.Require(h.handleCreateStore))
	mux.HandleFunc("DELETE /api/franchise/{id}/store/{storeId}", authn.Require(h.handleDeleteStore))
}

// handleList is open to all callers, authenticated or not.
func (h *FranchiseHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string][]models.Franchise{"franchises": list})
}

func (h *FranchiseHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFrom(r.Context())
	if !auth.Authorize(actor, auth.ActionCreateFranchise, auth.Resource{}) {
		respond.Message(w, http.StatusForbidden, "unable to create a franchise")
		return
	}
	var req dto.CreateFranchiseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	created, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, created)
}

// handleListForUser answers with the target's franchises when the caller is
// the target or an admin, and an empty list otherwise. Lack of access is
// deliberately indistinguishable from an empty result on this read.
func (h *FranchiseHandler) handleListForUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFrom(r.Context())
	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if !auth.Authorize(actor, auth.ActionViewUserFranchises, auth.Resource{UserID: userID}) {
		respond.JSON(w, http.StatusOK, []models.Franchise{})
		return
	}
	list, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *FranchiseHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFrom(r.Context())
	franchiseID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid franchise id")
		return
	}
	if !auth.Authorize(actor, auth.ActionDeleteFranchise, auth.Resource{FranchiseID: franchiseID}) {
		respond.Message(w, http.StatusForbidden, "unable to delete a franchise")
		return
	}
	if err := h.svc.Delete(r.Context(), franchiseID); err != nil {
		respond.Error(w, err)
		return
	}
	respond.Message(w, http.StatusOK, "franchise deleted")
}

func (h *FranchiseHandler) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFrom(r.Context())
	franchiseID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid franchise id")
		return
	}
	if !auth.Authorize(actor, auth.ActionCreateStore, auth.Resource{FranchiseID: franchiseID}) {
		respond.Message(w, http.StatusForbidden, "unable to create a store")
		return
	}
	var req dto.CreateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	st, err := h.svc.CreateStore(r.Context(), franchiseID, req.Name)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, st)
}

func (h *FranchiseHandler) handleDeleteStore(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFrom(r.Context())
	franchiseID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid franchise id")
		return
	}
	storeID, err := strconv.ParseInt(r.PathValue("storeId"), 10, 64)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid store id")
		return
	}
	if !auth.Authorize(actor, auth.ActionDeleteStore, auth.Resource{FranchiseID: franchiseID}) {
		respond.Message(w, http.StatusForbidden, "unable to delete a store")
		return
	}
	if err := h.svc.DeleteStore(r.Context(), franchiseID, storeID); err != nil {
		respond.Error(w, err)
		return
	}
	respond.Message(w, http.StatusOK, "store deleted")
}
