package models

import "strings"

// Role names carried in role grants.
const (
	RoleAdmin      = "admin"
	RoleFranchisee = "franchisee"
	RoleDiner      = "diner"
)

// RoleGrant assigns a role to a user. Franchisee grants are scoped to a
// single franchise via ObjectID; admin and diner grants are global.
type RoleGrant struct {
	Role     string `json:"role"`
	ObjectID int64  `json:"objectId,omitempty"`
}

// User captures an authenticated identity and its role grants.
type User struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Roles        []RoleGrant `json:"roles"`
}

// IsAdmin reports whether the user holds a global admin grant.
func (u User) IsAdmin() bool {
	for _, g := range u.Roles {
		if g.Role == RoleAdmin {
			return true
		}
	}
	return false
}

// IsFranchisee reports whether the user holds a franchisee grant scoped to
// the given franchise.
func (u User) IsFranchisee(franchiseID int64) bool {
	for _, g := range u.Roles {
		if g.Role == RoleFranchisee && g.ObjectID == franchiseID {
			return true
		}
	}
	return false
}

// NormalizeEmail lowercases an email for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
