package domain

import "time"

const (
	RoleCustomer = "customer"
	RoleBaker    = "baker"
	RoleDelivery = "delivery_person"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one of the four known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleBaker, RoleDelivery, RoleAdmin:
		return true
	}
	return false
}

// HomeFor maps a role to its landing route. Unknown roles fall back to the
// default home so a stale persisted record can never strand a user.
func HomeFor(role string) string {
	switch role {
	case RoleAdmin:
		return "/admin"
	case RoleBaker:
		return "/baker"
	case RoleDelivery:
		return "/delivery"
	default:
		return "/"
	}
}

// User is the cached profile of the signed-in actor as returned by the
// backend's current-user endpoint. The validate tags gate every read of the
// persisted copy: a record that fails them is treated as absent.
type User struct {
	ID        int       `json:"id" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Username  string    `json:"username" validate:"required"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role" validate:"required,oneof=customer baker delivery_person admin"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
