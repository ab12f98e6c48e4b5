package storage

import (
	"context"
	"fmt"

	"ms-storefront/internal/models"

	"github.com/uptrace/bun"
)

// ---------------- EVENTS ----------------

// ListEvents returns events newest first. An empty category matches all.
func (d *DB) ListEvents(ctx context.Context, category string, publishedOnly bool) ([]models.Event, error) {
	events := []models.Event{}
	q := d.Bun.NewSelect().Model(&events).Order("created_at DESC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "event "+id)
	}
	return &event, nil
}

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

// DeleteResult reports how many child records went with a deleted parent.
type DeleteResult struct {
	Presentations int `json:"presentations"`
	Seats         int `json:"seats"`

	// SeatIDs holds the deleted seat ids keyed by presentation id.
	SeatIDs map[string][]string `json:"-"`
}

// DeleteEvent removes an event together with its presentations and their seats.
func (d *DB) DeleteEvent(ctx context.Context, id string) (DeleteResult, error) {
	var result DeleteResult
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*models.Event)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("event %s: %w", id, ErrNotFound)
		}

		var presentationIDs []string
		err = tx.NewSelect().
			Model((*models.Presentation)(nil)).
			Column("id").
			Where("event_id = ?", id).
			Scan(ctx, &presentationIDs)
		if err != nil {
			return err
		}

		if len(presentationIDs) > 0 {
			var seats []models.Seat
			err = tx.NewSelect().
				Model(&seats).
				Column("id", "presentation_id").
				Where("presentation_id IN (?)", bun.In(presentationIDs)).
				Scan(ctx)
			if err != nil {
				return err
			}
			if len(seats) > 0 {
				result.SeatIDs = make(map[string][]string)
				for _, seat := range seats {
					result.SeatIDs[seat.PresentationID] = append(result.SeatIDs[seat.PresentationID], seat.ID)
				}
			}

			res, err := tx.NewDelete().
				Model((*models.Seat)(nil)).
				Where("presentation_id IN (?)", bun.In(presentationIDs)).
				Exec(ctx)
			if err != nil {
				return err
			}
			result.Seats = rowsAffected(res)

			if _, err := tx.NewDelete().Model((*models.Presentation)(nil)).Where("event_id = ?", id).Exec(ctx); err != nil {
				return err
			}
			result.Presentations = len(presentationIDs)
		}

		_, err = tx.NewDelete().Model((*models.Event)(nil)).Where("id = ?", id).Exec(ctx)
		return err
	})
	return result, err
}

// ---------------- VENUES ----------------

func (d *DB) ListVenues(ctx context.Context) ([]models.Venue, error) {
	venues := []models.Venue{}
	if err := d.Bun.NewSelect().Model(&venues).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return venues, nil
}

func (d *DB) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	var venue models.Venue
	err := d.Bun.NewSelect().Model(&venue).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "venue "+id)
	}
	return &venue, nil
}

func (d *DB) CreateVenue(ctx context.Context, venue models.Venue) error {
	_, err := d.Bun.NewInsert().Model(&venue).Exec(ctx)
	return err
}

// DeleteVenue refuses to delete a venue that events still point at.
func (d *DB) DeleteVenue(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*models.Venue)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("venue %s: %w", id, ErrNotFound)
		}

		inUse, err := tx.NewSelect().Model((*models.Event)(nil)).Where("venue_id = ?", id).Count(ctx)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return fmt.Errorf("venue %s has %d events: %w", id, inUse, ErrVenueInUse)
		}

		_, err = tx.NewDelete().Model((*models.Venue)(nil)).Where("id = ?", id).Exec(ctx)
		return err
	})
}

// ---------------- PRESENTATIONS ----------------

func (d *DB) ListPresentations(ctx context.Context, eventID string) ([]models.Presentation, error) {
	presentations := []models.Presentation{}
	err := d.Bun.NewSelect().
		Model(&presentations).
		Where("event_id = ?", eventID).
		Order("starts_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return presentations, nil
}

// GetPresentation only matches a presentation that belongs to eventID.
func (d *DB) GetPresentation(ctx context.Context, eventID, presentationID string) (*models.Presentation, error) {
	var p models.Presentation
	err := d.Bun.NewSelect().
		Model(&p).
		Where("id = ?", presentationID).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "presentation "+presentationID)
	}
	return &p, nil
}

func (d *DB) CreatePresentation(ctx context.Context, p models.Presentation) error {
	_, err := d.Bun.NewInsert().Model(&p).Exec(ctx)
	return err
}

// DeletePresentation removes the presentation and its seats and returns the deleted seat ids.
func (d *DB) DeletePresentation(ctx context.Context, eventID, presentationID string) ([]string, error) {
	var seatIDs []string
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Presentation)(nil)).
			Where("id = ?", presentationID).
			Where("event_id = ?", eventID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("presentation %s: %w", presentationID, ErrNotFound)
		}

		err = tx.NewSelect().
			Model((*models.Seat)(nil)).
			Column("id").
			Where("presentation_id = ?", presentationID).
			Scan(ctx, &seatIDs)
		if err != nil {
			return err
		}

		if _, err := tx.NewDelete().Model((*models.Seat)(nil)).Where("presentation_id = ?", presentationID).Exec(ctx); err != nil {
			return err
		}

		_, err = tx.NewDelete().Model((*models.Presentation)(nil)).Where("id = ?", presentationID).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return seatIDs, nil
}

// ---------------- DASHBOARD ----------------

type Counts struct {
	Events      int `json:"events"`
	Venues      int `json:"venues"`
	Subscribers int `json:"subscribers"`
	SoldSeats   int `json:"soldSeats"`
}

func (d *DB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	var err error
	if c.Events, err = d.Bun.NewSelect().Model((*models.Event)(nil)).Count(ctx); err != nil {
		return c, err
	}
	if c.Venues, err = d.Bun.NewSelect().Model((*models.Venue)(nil)).Count(ctx); err != nil {
		return c, err
	}
	if c.Subscribers, err = d.Bun.NewSelect().Model((*models.NewsletterSubscriber)(nil)).Count(ctx); err != nil {
		return c, err
	}
	c.SoldSeats, err = d.Bun.NewSelect().
		Model((*models.Seat)(nil)).
		Where("status = ?", models.SeatStatusSold).
		Count(ctx)
	return c, err
}
