package models

import (
	"time"

	"github.com/uptrace/bun"
)

type NewsletterSubscriber struct {
	bun.BaseModel `bun:"table:newsletter_subscribers"`

	ID           string    `bun:"id,pk" json:"id"`
	Email        string    `bun:"email,unique,notnull" json:"email"`
	Source       string    `bun:"source" json:"source,omitempty"`
	SubscribedAt time.Time `bun:"subscribed_at,notnull" json:"subscribedAt"`
}

type SubscribeRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Source string `json:"source"`
}
