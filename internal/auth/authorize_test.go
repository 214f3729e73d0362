package auth

import (
	"testing"

	"github.com/pizzanet/pizza-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	admin := models.User{ID: 1, Roles: []models.RoleGrant{{Role: models.RoleAdmin}}}
	franchisee := models.User{ID: 2, Roles: []models.RoleGrant{
		{Role: models.RoleDiner},
		{Role: models.RoleFranchisee, ObjectID: 10},
	}}
	diner := models.User{ID: 3, Roles: []models.RoleGrant{{Role: models.RoleDiner}}}

	tests := []struct {
		name   string
		user   models.User
		action Action
		res    Resource
		want   bool
	}{
		{"admin may create franchise", admin, ActionCreateFranchise, Resource{}, true},
		{"admin may update any user", admin, ActionUpdateUser, Resource{UserID: 3}, true},
		{"admin may mutate menu", admin, ActionUpdateMenu, Resource{}, true},
		{"admin may delete any franchise", admin, ActionDeleteFranchise, Resource{FranchiseID: 99}, true},

		{"user may update self", diner, ActionUpdateUser, Resource{UserID: 3}, true},
		{"user may not update others", diner, ActionUpdateUser, Resource{UserID: 2}, false},
		{"user may view own franchise list", diner, ActionViewUserFranchises, Resource{UserID: 3}, true},
		{"user may not view another franchise list", diner, ActionViewUserFranchises, Resource{UserID: 2}, false},

		{"franchisee may create store in own franchise", franchisee, ActionCreateStore, Resource{FranchiseID: 10}, true},
		{"franchisee may delete store in own franchise", franchisee, ActionDeleteStore, Resource{FranchiseID: 10}, true},
		{"franchisee may delete own franchise", franchisee, ActionDeleteFranchise, Resource{FranchiseID: 10}, true},
		{"franchisee scoped to its franchise only", franchisee, ActionCreateStore, Resource{FranchiseID: 11}, false},
		{"franchisee may not create franchises", franchisee, ActionCreateFranchise, Resource{}, false},
		{"franchisee may not mutate menu", franchisee, ActionUpdateMenu, Resource{}, false},

		{"diner may not create store", diner, ActionCreateStore, Resource{FranchiseID: 10}, false},
		{"diner may not mutate menu", diner, ActionUpdateMenu, Resource{}, false},
		{"diner may not delete franchise", diner, ActionDeleteFranchise, Resource{FranchiseID: 10}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Authorize(tc.user, tc.action, tc.res))
		})
	}
}
