package models

import (
	"time"
)

// Role is the authorization role of an account
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an account holding credits
type User struct {
	ID          int64     `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Email       *string   `db:"email" json:"email,omitempty"`
	Role        Role      `db:"role" json:"role"`
	Credits     int64     `db:"credits" json:"credits"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Principal is the authenticated caller of an operation
type Principal struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the principal holds the admin role
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CreditChange is the result of a single ledger update
type CreditChange struct {
	UserID        int64
	BalanceBefore int64
	BalanceAfter  int64
}

// Delta returns the signed amount applied by the change
func (c CreditChange) Delta() int64 {
	return c.BalanceAfter - c.BalanceBefore
}
