package models

import "time"

// Order is the ticket service's view of an order. The storefront never stores orders.
type Order struct {
	OrderID        string    `json:"orderId"`
	UserID         string    `json:"userId"`
	EventID        string    `json:"eventId"`
	PresentationID string    `json:"presentationId"`
	SeatIDs        []string  `json:"seatIds"`
	Status         string    `json:"status"`
	Total          float64   `json:"total"`
	CreatedAt      time.Time `json:"createdAt"`
}

type CancelOrderRequest struct {
	OrderID string `json:"orderId" validate:"required"`
	Reason  string `json:"reason"`
}

type CancelOrderResult struct {
	OrderID       string   `json:"orderId"`
	Status        string   `json:"status"`
	ReleasedSeats []string `json:"releasedSeats"`
}

type HoldRequest struct {
	EventID        string   `json:"eventId" validate:"required"`
	PresentationID string   `json:"presentationId" validate:"required"`
	SeatIDs        []string `json:"seatIds" validate:"required,min=1,max=10,dive,required"`
}

type Hold struct {
	HoldID         string    `json:"holdId"`
	PresentationID string    `json:"presentationId"`
	SeatIDs        []string  `json:"seatIds"`
	ExpiresAt      time.Time `json:"expiresAt"`
}
