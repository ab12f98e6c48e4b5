// Package storagetest opens an in-memory SQLite database with the storefront schema.
package storagetest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func New(t *testing.T) *storage.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqldb.SetMaxOpenConns(1)

	d := storage.New(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := d.CreateSchema(context.Background()); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { d.Bun.Close() })
	return d
}

// Fixture is a published event at one venue with a single presentation.
type Fixture struct {
	Venue        models.Venue
	Event        models.Event
	Presentation models.Presentation
	Seats        []models.Seat
}

// Seed inserts a fixture whose presentation has seatCount available seats.
func Seed(t *testing.T, d *storage.DB, prefix string, seatCount int) Fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	f := Fixture{
		Venue: models.Venue{
			ID:        prefix + "-venue",
			Name:      "Teatro " + prefix,
			Address:   "Av. Principal 123",
			City:      "Lima",
			Capacity:  500,
			CreatedAt: now,
		},
	}
	f.Event = models.Event{
		ID:        prefix + "-event",
		Title:     "Concierto " + prefix,
		Category:  "music",
		VenueID:   f.Venue.ID,
		Published: true,
		CreatedAt: now,
	}
	f.Presentation = models.Presentation{
		ID:        prefix + "-pres",
		EventID:   f.Event.ID,
		VenueID:   f.Venue.ID,
		StartsAt:  now.Add(72 * time.Hour),
		Price:     120,
		CreatedAt: now,
	}
	for i := 1; i <= seatCount; i++ {
		f.Seats = append(f.Seats, models.Seat{
			ID:             fmt.Sprintf("%s-seat-%d", prefix, i),
			PresentationID: f.Presentation.ID,
			Section:        "A",
			Row:            "1",
			Number:         i,
			Status:         models.SeatStatusAvailable,
		})
	}

	if err := d.CreateVenue(ctx, f.Venue); err != nil {
		t.Fatalf("seed venue: %v", err)
	}
	if err := d.CreateEvent(ctx, f.Event); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	if err := d.CreatePresentation(ctx, f.Presentation); err != nil {
		t.Fatalf("seed presentation: %v", err)
	}
	if err := d.CreateSeats(ctx, f.Seats); err != nil {
		t.Fatalf("seed seats: %v", err)
	}
	return f
}

func SeatIDs(seats []models.Seat) []string {
	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = s.ID
	}
	return ids
}
