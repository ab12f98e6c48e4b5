package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description" json:"description"`
	Category    string    `bun:"category" json:"category"`
	VenueID     string    `bun:"venue_id" json:"venueId"`
	ImageURL    string    `bun:"image_url" json:"imageUrl,omitempty"`
	Published   bool      `bun:"published" json:"published"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type Venue struct {
	bun.BaseModel `bun:"table:venues"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Address   string    `bun:"address" json:"address"`
	City      string    `bun:"city" json:"city"`
	Capacity  int       `bun:"capacity" json:"capacity"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// Presentation is a scheduled showing of an event. Seats belong to a presentation.
type Presentation struct {
	bun.BaseModel `bun:"table:presentations"`

	ID        string    `bun:"id,pk" json:"id"`
	EventID   string    `bun:"event_id,notnull" json:"eventId"`
	VenueID   string    `bun:"venue_id" json:"venueId"`
	StartsAt  time.Time `bun:"starts_at,notnull" json:"startsAt"`
	Price     float64   `bun:"price" json:"price"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

type EventDetails struct {
	Event         Event          `json:"event"`
	Venue         *Venue         `json:"venue,omitempty"`
	Presentations []Presentation `json:"presentations"`
}
