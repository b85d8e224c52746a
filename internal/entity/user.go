package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// User is an account profile. Role stays nil until a manager approves the
// signup; after approval it never reverts.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           string     `bun:",pk"`
	Email        string     `bun:"email"`
	PasswordHash string     `bun:"password_hash"`
	Name         string     `bun:"name"`
	Role         *Role      `bun:"role,nullzero"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	LastLogin    *time.Time `bun:"last_login,nullzero"`
}

// Approved reports whether the account has been assigned a role.
func (u *User) Approved() bool {
	return u.Role != nil
}

// IsManager reports whether the account holds the manager role.
func (u *User) IsManager() bool {
	return u.Role != nil && *u.Role == RoleManager
}
