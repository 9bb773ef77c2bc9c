package models

import (
	"time"

	"gorm.io/gorm"
)

// Workshop staff roles
const (
	RoleSuperAdmin = "superAdmin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleCouturier  = "couturier"
	RoleLivreur    = "livreur"
)

// Roles lists every assignable role
var Roles = []string{RoleSuperAdmin, RoleAdmin, RoleManager, RoleCouturier, RoleLivreur}

// IsValidRole reports whether role is one of Roles
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsPrivilegedRole reports whether role may grant discounts, edit prices and delete orders
func IsPrivilegedRole(role string) bool {
	return role == RoleSuperAdmin || role == RoleAdmin
}

// User represents a member of the workshop staff
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null;size:191" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null;size:191" json:"email"`
	Role      string         `gorm:"not null;default:'couturier'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsPrivileged reports whether the user holds an admin role
func (u *User) IsPrivileged() bool {
	return IsPrivilegedRole(u.Role)
}
