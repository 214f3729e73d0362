package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pizzanet/pizza-service/internal/auth"
	"github.com/pizzanet/pizza-service/internal/http/respond"
	"github.com/pizzanet/pizza-service/internal/middleware"
	"github.com/pizzanet/pizza-service/internal/models"
	"github.com/pizzanet/pizza-service/internal/models/dto"
	"github.com/pizzanet/pizza-service/internal/orders"
)

// OrderHandler owns the /api/order endpoints.
type OrderHandler struct {
	svc *orders.Service
}

// NewOrderHandler constructs the handler.
func NewOrderHandler(svc *orders.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// Register attaches order routes to the mux.
func (h *OrderHandler) Register(mux *http.ServeMux, authn *middleware.Authenticator) {
	mux.HandleFunc("GET /api/order/menu", h.handleMenu)
	mux.HandleFunc("PUT /api/order/menu", authn.Require(h.handleAddMenuItem))
	mux.HandleFunc("GET /api/order", authn.Require(h.handleList))
	mux.HandleFunc("POST /api/order", authn.Require(h.handleCreate))
}

// handleMenu serves the public menu; no authentication required.
func (h *OrderHandler) handleMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.svc.Menu(r.Context())
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, menu)
}

// handleAddMenuItem is admin-only; franchisees are denied like any other
// non-admin.
func (h *OrderHandler) handleAddMenuItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserFrom(r.Context())
	if !auth.Authorize(actor, auth.ActionUpdateMenu, auth.Resource{}) {
		respond.Message(w, http.StatusForbidden, "unable to add menu item")
		return
	}
	var item models.MenuItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	menu, err := h.svc.AddMenuItem(r.Context(), item)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, menu)
}

func (h *OrderHandler) handleList(w http.ResponseWriter, r *http.Request) {
	diner, _ := middleware.UserFrom(r.Context())
	list, err := h.svc.ListForDiner(r.Context(), diner.ID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.OrderListResponse{DinerID: diner.ID, Orders: list})
}

func (h *OrderHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	diner, _ := middleware.UserFrom(r.Context())
	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	order, err := h.svc.Create(r.Context(), diner, req)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.OrderResponse{Order: order})
}
