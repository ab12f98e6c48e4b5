// Package sse streams live seat status changes to seat-map viewers.
package sse

import (
	"context"
	"sync"

	"ms-storefront/internal/kafka"
	"ms-storefront/internal/models"
)

const clientBuffer = 10

// SeatEventHub fans seat status changes out to the viewers of a presentation.
type SeatEventHub struct {
	mu      sync.RWMutex
	clients map[string][]chan models.SeatStatusChangeEvent
}

func NewSeatEventHub() *SeatEventHub {
	return &SeatEventHub{clients: make(map[string][]chan models.SeatStatusChangeEvent)}
}

// Subscribe registers a viewer of presentationID. The channel is closed once
// ctx is done.
func (h *SeatEventHub) Subscribe(ctx context.Context, presentationID string) <-chan models.SeatStatusChangeEvent {
	ch := make(chan models.SeatStatusChangeEvent, clientBuffer)

	h.mu.Lock()
	h.clients[presentationID] = append(h.clients[presentationID], ch)
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(presentationID, ch)
	}()
	return ch
}

// Emit never blocks; slow viewers miss events and refresh from the seat map.
func (h *SeatEventHub) Emit(event models.SeatStatusChangeEvent) {
	event.UserID = ""

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients[event.PresentationID] {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *SeatEventHub) ClientCount(presentationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[presentationID])
}

func (h *SeatEventHub) remove(presentationID string, ch chan models.SeatStatusChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[presentationID]
	for i, c := range clients {
		if c == ch {
			h.clients[presentationID] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(h.clients[presentationID]) == 0 {
		delete(h.clients, presentationID)
	}
}

// BroadcastPublisher forwards every event to Next and copies seat status
// events to the hub.
type BroadcastPublisher struct {
	Next kafka.Publisher
	Hub  *SeatEventHub
}

func (p *BroadcastPublisher) Publish(ctx context.Context, topic, key string, event interface{}) error {
	if seatEvent, ok := event.(models.SeatStatusChangeEvent); ok {
		p.Hub.Emit(seatEvent)
	}
	return p.Next.Publish(ctx, topic, key, event)
}
