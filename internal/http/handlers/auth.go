package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pizzanet/pizza-service/internal/auth"
	"github.com/pizzanet/pizza-service/internal/http/respond"
	"github.com/pizzanet/pizza-service/internal/middleware"
	"github.com/pizzanet/pizza-service/internal/models/dto"
)

// AuthHandler owns the /api/auth endpoints: register, login, logout.
type AuthHandler struct {
	auth *auth.Service
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authSvc *auth.Service) *AuthHandler {
	return &AuthHandler{auth: authSvc}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth", h.handleRegister)
	mux.HandleFunc("PUT /api/auth", h.handleLogin)
	mux.HandleFunc("DELETE /api/auth", h.handleLogout)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, token, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		respond.Error(w, err)
		return
	}
	respond.Message(w, http.StatusOK, "logout successful")
}
