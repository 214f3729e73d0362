package dto

import "github.com/pizzanet/pizza-service/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register, login, and user update.
type AuthResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}
