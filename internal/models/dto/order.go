package dto

import "github.com/pizzanet/pizza-service/internal/models"

type CreateOrderRequest struct {
	FranchiseID int64              `json:"franchiseId"`
	StoreID     int64              `json:"storeId"`
	Items       []models.OrderItem `json:"items"`
}

type OrderListResponse struct {
	DinerID int64          `json:"dinerId"`
	Orders  []models.Order `json:"orders"`
}

type OrderResponse struct {
	Order models.Order `json:"order"`
}

type UpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
