package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID          string    `bun:"id,pk" json:"id"`
	Email       string    `bun:"email" json:"email"`
	DisplayName string    `bun:"display_name" json:"displayName"`
	Role        string    `bun:"role,notnull" json:"role"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// SessionUser is the verified caller returned by /api/auth/verify.
type SessionUser struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	Role          string `json:"role"`
}

func (u *SessionUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
