package storage

import (
	"context"
	"errors"

	"github.com/pizzanet/pizza-service/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations for users and their role grants.
type UserStore interface {
	// CreateUser inserts a user with its role grants and returns the
	// server-assigned id. Email uniqueness is case-insensitive.
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	// UpdateUser replaces name, email, and password hash; empty fields on
	// the input keep their stored values. Role grants are not touched.
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
}

// FranchiseStore owns franchises and their stores.
type FranchiseStore interface {
	// CreateFranchise records the franchise, its admin list in order, and
	// grants each admin a franchisee role scoped to the new franchise.
	CreateFranchise(ctx context.Context, name string, admins []models.User) (models.Franchise, error)
	GetFranchise(ctx context.Context, id int64) (models.Franchise, error)
	ListFranchises(ctx context.Context) ([]models.Franchise, error)
	// ListFranchisesForUser returns franchises the user administers.
	ListFranchisesForUser(ctx context.Context, userID int64) ([]models.Franchise, error)
	// DeleteFranchise removes the franchise, all of its stores, and the
	// franchisee grants scoped to it, atomically from the caller's
	// perspective. It is serialized against CreateStore per franchise so
	// no orphaned store can be observed.
	DeleteFranchise(ctx context.Context, id int64) error
	CreateStore(ctx context.Context, franchiseID int64, name string) (models.Store, error)
	GetStore(ctx context.Context, franchiseID, storeID int64) (models.Store, error)
	DeleteStore(ctx context.Context, franchiseID, storeID int64) error
}

// OrderStore owns orders and the menu.
type OrderStore interface {
	// CreateOrder records the order with a fresh id in the persisted state.
	CreateOrder(ctx context.Context, order models.Order) (models.Order, error)
	ListOrdersForDiner(ctx context.Context, dinerID int64) ([]models.Order, error)
	// SetFulfillment attaches the terminal state and optional receipt.
	SetFulfillment(ctx context.Context, orderID int64, state models.FulfillmentState, receipt string) error
	ListMenu(ctx context.Context) ([]models.MenuItem, error)
	AddMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error)
}

// Store is the full persistence surface wired into the server.
type Store interface {
	UserStore
	FranchiseStore
	OrderStore
}
