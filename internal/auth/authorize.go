package auth

import "github.com/pizzanet/pizza-service/internal/models"

// Action names a protected operation for authorization decisions.
type Action string

const (
	ActionCreateFranchise    Action = "franchise:create"
	ActionDeleteFranchise    Action = "franchise:delete"
	ActionViewUserFranchises Action = "franchise:list-user"
	ActionCreateStore        Action = "store:create"
	ActionDeleteStore        Action = "store:delete"
	ActionUpdateMenu         Action = "menu:update"
	ActionUpdateUser         Action = "user:update"
)

// Resource identifies the target of an action. Only the field relevant to
// the action is consulted.
type Resource struct {
	FranchiseID int64
	UserID      int64
}

// Authorize is the pure access decision for an authenticated user. Rules,
// in precedence order: admins may do anything; self-service actions require
// the actor to be the target; franchise-scoped actions require a franchisee
// grant on that franchise; everything else is denied. Menu mutation never
// falls through to franchisees.
func Authorize(user models.User, action Action, res Resource) bool {
	if user.IsAdmin() {
		return true
	}
	switch action {
	case ActionUpdateUser, ActionViewUserFranchises:
		return user.ID == res.UserID
	case ActionDeleteFranchise, ActionCreateStore, ActionDeleteStore:
		return user.IsFranchisee(res.FranchiseID)
	default:
		return false
	}
}
