package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// HasPermission reports whether the role satisfies the minimum required role.
func (r Role) HasPermission(min Role) bool {
	if min == RoleAdmin {
		return r == RoleAdmin
	}
	return r == RoleCustomer || r == RoleAdmin
}

// User is an account record. PasswordHash and ConfirmationTokenHash never
// leave the identity package.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	Name                  string     `json:"name"`
	PhoneNumber           string     `json:"phone_number,omitempty"`
	PasswordHash          string     `json:"-"`
	Role                  Role       `json:"role"`
	EmailConfirmed        bool       `json:"email_confirmed"`
	ConfirmationTokenHash *string    `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
