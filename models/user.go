package models

import (
	"time"
)

// Role is the account role reported by the prediction service
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleAdmin  Role = "admin"
)

// User represents an account of the prediction service
type User struct {
	ID                int64     `json:"id" db:"id"`
	Email             string    `json:"email" db:"email"`
	Username          string    `json:"username" db:"username"`
	Role              Role      `json:"role" db:"role"`
	PreferredLanguage string    `json:"preferred_language" db:"preferred_language"`
	Token             string    `json:"-" db:"token"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the user may view other users' history
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Viewer is the identity a request acts on behalf of. It is passed
// explicitly to every component instead of being looked up globally.
type Viewer struct {
	User
}

// Anonymous reports whether no identity could be resolved
func (v Viewer) Anonymous() bool {
	return v.Token == "" || v.ID == 0
}

// Owner is a selectable history scope for admins
type Owner struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
}

// HistoryScope selects whose records are listed. Zero means unscoped:
// everything for admins, own records for farmers.
type HistoryScope int64

// Unscoped is the default scope
const Unscoped HistoryScope = 0

// IsSet reports whether the scope narrows to one owner
func (s HistoryScope) IsSet() bool {
	return s != Unscoped
}
