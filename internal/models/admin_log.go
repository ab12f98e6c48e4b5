package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	ActionCancelOrder        = "cancel_order"
	ActionDeleteEvent        = "delete_event"
	ActionDeleteVenue        = "delete_venue"
	ActionDeletePresentation = "delete_presentation"
	ActionResetSeats         = "reset_seats"
)

type AdminLog struct {
	bun.BaseModel `bun:"table:admin_logs"`

	ID         string            `bun:"id,pk" json:"id"`
	Action     string            `bun:"action,notnull" json:"action"`
	AdminID    string            `bun:"admin_id,notnull" json:"adminId"`
	AdminEmail string            `bun:"admin_email" json:"adminEmail"`
	TargetType string            `bun:"target_type" json:"targetType"`
	TargetID   string            `bun:"target_id" json:"targetId"`
	Details    map[string]string `bun:"details" json:"details,omitempty"`
	CreatedAt  time.Time         `bun:"created_at,notnull" json:"createdAt"`
}
