package models

import (
	"time"

	"github.com/uptrace/bun"
)

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusReserved  SeatStatus = "reserved"
	SeatStatusSold      SeatStatus = "sold"

	// SeatStatusRemoved is only announced to seat-map viewers; no seat row carries it.
	SeatStatusRemoved SeatStatus = "removed"
)

func (s SeatStatus) Valid() bool {
	switch s {
	case SeatStatusAvailable, SeatStatusReserved, SeatStatusSold:
		return true
	}
	return false
}

// Seat holder and reservation columns are nullable; a reset clears all of them.
type Seat struct {
	bun.BaseModel `bun:"table:seats"`

	ID                string     `bun:"id,pk" json:"id"`
	PresentationID    string     `bun:"presentation_id,notnull" json:"presentationId"`
	Section           string     `bun:"section" json:"section"`
	Row               string     `bun:"row" json:"row"`
	Number            int        `bun:"number" json:"number"`
	Status            SeatStatus `bun:"status,notnull" json:"status"`
	UserID            *string    `bun:"user_id" json:"userId"`
	SoldToUserID      *string    `bun:"sold_to_user_id" json:"soldToUserId"`
	ReservaSesionID   *string    `bun:"reserva_sesion_id" json:"reservaSesionId"`
	ReservaExpiracion *time.Time `bun:"reserva_expiracion" json:"reservaExpiracion"`
	UpdatedAt         time.Time  `bun:"updated_at,nullzero" json:"updatedAt"`
}

// PublicSeat is the seat-map view, without holder fields.
type PublicSeat struct {
	ID      string     `json:"id"`
	Section string     `json:"section"`
	Row     string     `json:"row"`
	Number  int        `json:"number"`
	Status  SeatStatus `json:"status"`
}

func (s Seat) Public() PublicSeat {
	return PublicSeat{
		ID:      s.ID,
		Section: s.Section,
		Row:     s.Row,
		Number:  s.Number,
		Status:  s.Status,
	}
}
