// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold
const (
	RoleWorker = "Worker"
	RoleBuyer  = "Buyer"
	RoleAdmin  = "Admin"
)

// startingCoins is the balance granted on first sign-in, per role
var startingCoins = map[string]int64{
	RoleWorker: 10,
	RoleBuyer:  50,
	RoleAdmin:  0,
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	_, ok := startingCoins[role]
	return ok
}

// StartingCoins returns the sign-up balance for role. Unknown roles get 0.
func StartingCoins(role string) int64 {
	return startingCoins[role]
}

// User model
type User struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Photo     string             `json:"photo,omitempty" bson:"photo,omitempty"`
	Role      string             `json:"role" bson:"role"`
	Coins     Coins              `json:"coins" bson:"coins"`
	FCMToken  string             `json:"-" bson:"fcmToken,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateUserRequest is the sign-up payload. Coins sent by the client are ignored.
type CreateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Photo string `json:"photo"`
	Role  string `json:"role" validate:"required"`
}

// UpdateRoleRequest changes a user's role (admin only)
type UpdateRoleRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

// UpdateProfileRequest holds the self-service profile fields
type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Photo    string `json:"photo"`
	FCMToken string `json:"fcmToken"`
}

// SetCoinsRequest overwrites a balance (admin tooling)
type SetCoinsRequest struct {
	Email string `json:"email" validate:"required,email"`
	Coins int64  `json:"coins"`
}

// ModifyCoinsRequest adds delta (possibly negative) to a balance
type ModifyCoinsRequest struct {
	Email string `json:"email" validate:"required,email"`
	Delta int64  `json:"delta"`
}

// UserFilter narrows ListUsers
type UserFilter struct {
	Role string
	Name string
}

// Identity is the authenticated caller, as decoded from a bearer token
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HasRole reports whether the identity holds one of roles.
func (i Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin is shorthand for HasRole(RoleAdmin)
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
