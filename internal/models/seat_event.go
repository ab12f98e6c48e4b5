package models

import (
	"fmt"
	"time"
)

// SeatStatusChangeEvent is published after seats change state and consumed from
// the ticket service when orders complete or are released.
type SeatStatusChangeEvent struct {
	PresentationID string     `json:"presentationId"`
	SeatIDs        []string   `json:"seatIds"`
	Status         SeatStatus `json:"status"`
	UserID         string     `json:"userId,omitempty"`
	OccurredAt     time.Time  `json:"occurredAt"`
}

// NewSeatStatusChangeEvent builds an event and rejects unknown statuses or an empty seat list.
func NewSeatStatusChangeEvent(presentationID string, seatIDs []string, status SeatStatus) (SeatStatusChangeEvent, error) {
	if presentationID == "" {
		return SeatStatusChangeEvent{}, fmt.Errorf("presentation id is required")
	}
	if len(seatIDs) == 0 {
		return SeatStatusChangeEvent{}, fmt.Errorf("at least one seat id is required")
	}
	if !status.Valid() {
		return SeatStatusChangeEvent{}, fmt.Errorf("invalid seat status %q", status)
	}
	return SeatStatusChangeEvent{
		PresentationID: presentationID,
		SeatIDs:        seatIDs,
		Status:         status,
		OccurredAt:     time.Now().UTC(),
	}, nil
}

// NewSeatsRemovedEvent announces seats that were deleted with their presentation.
func NewSeatsRemovedEvent(presentationID string, seatIDs []string) SeatStatusChangeEvent {
	return SeatStatusChangeEvent{
		PresentationID: presentationID,
		SeatIDs:        seatIDs,
		Status:         SeatStatusRemoved,
		OccurredAt:     time.Now().UTC(),
	}
}

// AdminActionEvent mirrors an audit entry onto the message bus.
type AdminActionEvent struct {
	Action     string            `json:"action"`
	AdminID    string            `json:"adminId"`
	TargetType string            `json:"targetType"`
	TargetID   string            `json:"targetId"`
	Details    map[string]string `json:"details,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}
