package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pizzanet/pizza-service/internal/auth"
	"github.com/pizzanet/pizza-service/internal/http/respond"
	"github.com/pizzanet/pizza-service/internal/middleware"
	"github.com/pizzanet/pizza-service/internal/models/dto"
)

// UserHandler owns the /api/user endpoints.
type UserHandler struct {
	auth *auth.Service
}

// NewUserHandler constructs the handler.
func NewUserHandler(authSvc *auth.Service) *UserHandler {
	return &UserHandler{auth: authSvc}
}

// Register attaches user routes to the mux.
func (h *UserHandler) Register(mux *http.ServeMux, authn *middleware.Authenticator) {
	mux.HandleFunc("GET /api/user/me", authn.Require(h.handleMe))
	mux.HandleFunc("PUT /api/user/{id}", authn.Require(h.handleUpdate))
	// Listing and deleting users are deliberate stubs, not errors.
	mux.HandleFunc("DELETE /api/user/{id}", authn.Require(h.handleNotImplemented))
	mux.HandleFunc("GET /api/user/{$}", authn.Require(h.handleNotImplemented))
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	respond.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFrom(r.Context())
	targetID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, token, err := h.auth.UpdateUser(r.Context(), actor, targetID, req.Name, req.Email, req.Password)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.AuthResponse{User: user, Token: token})
}

func (h *UserHandler) handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	respond.Message(w, http.StatusOK, "not implemented")
}
