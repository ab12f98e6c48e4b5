package storage

import (
	"context"
	"fmt"
	"time"

	"ms-storefront/internal/models"

	"github.com/uptrace/bun"
)

func (d *DB) ListSeats(ctx context.Context, presentationID string) ([]models.Seat, error) {
	seats := []models.Seat{}
	err := d.Bun.NewSelect().
		Model(&seats).
		Where("presentation_id = ?", presentationID).
		Order("section ASC", "row ASC", "number ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return seats, nil
}

func (d *DB) CreateSeats(ctx context.Context, seats []models.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&seats).Exec(ctx)
	return err
}

// ResetPresentationSeats makes every seat of a presentation available again and
// clears holder and reservation fields. All seats change in one transaction.
// It returns the seats as they were before the reset.
func (d *DB) ResetPresentationSeats(ctx context.Context, eventID, presentationID string) ([]models.Seat, error) {
	var before []models.Seat
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

		before = []models.Seat{}
		if err := tx.NewSelect().Model(&before).Where("presentation_id = ?", presentationID).Scan(ctx); err != nil {
			return err
		}
		if len(before) == 0 {
			return nil
		}

		_, err = tx.NewUpdate().
			Model((*models.Seat)(nil)).
			Set("status = ?", models.SeatStatusAvailable).
			Set("user_id = NULL").
			Set("sold_to_user_id = NULL").
			Set("reserva_sesion_id = NULL").
			Set("reserva_expiracion = NULL").
			Set("updated_at = ?", time.Now().UTC()).
			Where("presentation_id = ?", presentationID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return before, nil
}

// ReserveSeats holds all requested seats for userID or none of them.
func (d *DB) ReserveSeats(ctx context.Context, presentationID string, seatIDs []string, userID, holdID string, expiresAt time.Time) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var seats []models.Seat
		err := tx.NewSelect().
			Model(&seats).
			Where("presentation_id = ?", presentationID).
			Where("id IN (?)", bun.In(seatIDs)).
			Scan(ctx)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return fmt.Errorf("%d of %d seats found: %w", len(seats), len(seatIDs), ErrNotFound)
		}
		for _, s := range seats {
			if s.Status != models.SeatStatusAvailable {
				return fmt.Errorf("seat %s is %s: %w", s.ID, s.Status, ErrSeatUnavailable)
			}
		}

		res, err := tx.NewUpdate().
			Model((*models.Seat)(nil)).
			Set("status = ?", models.SeatStatusReserved).
			Set("user_id = ?", userID).
			Set("reserva_sesion_id = ?", holdID).
			Set("reserva_expiracion = ?", expiresAt.UTC()).
			Set("updated_at = ?", time.Now().UTC()).
			Where("presentation_id = ?", presentationID).
			Where("id IN (?)", bun.In(seatIDs)).
			Where("status = ?", models.SeatStatusAvailable).
			Exec(ctx)
		if err != nil {
			return err
		}
		if rowsAffected(res) != len(seatIDs) {
			return ErrSeatUnavailable
		}
		return nil
	})
}

// ReleaseHold frees seats reserved under holdID by userID and returns their ids.
func (d *DB) ReleaseHold(ctx context.Context, presentationID, holdID, userID string) ([]string, error) {
	var seatIDs []string
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model((*models.Seat)(nil)).
			Column("id").
			Where("presentation_id = ?", presentationID).
			Where("reserva_sesion_id = ?", holdID).
			Where("user_id = ?", userID).
			Where("status = ?", models.SeatStatusReserved).
			Scan(ctx, &seatIDs)
		if err != nil {
			return err
		}
		if len(seatIDs) == 0 {
			return fmt.Errorf("hold %s: %w", holdID, ErrNotFound)
		}
		_, err = clearReservation(tx, presentationID).
			Where("id IN (?)", bun.In(seatIDs)).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return seatIDs, nil
}

// ReleaseExpiredSeat frees a seat whose reservation ended before now.
// Seats that were sold or re-held in the meantime are left alone.
func (d *DB) ReleaseExpiredSeat(ctx context.Context, presentationID, seatID string, now time.Time) (bool, error) {
	released := false
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var seat models.Seat
		err := tx.NewSelect().
			Model(&seat).
			Where("id = ?", seatID).
			Where("presentation_id = ?", presentationID).
			Limit(1).
			Scan(ctx)
		if err != nil {
			return notFound(err, "seat "+seatID)
		}
		if seat.Status != models.SeatStatusReserved || seat.ReservaExpiracion == nil {
			return nil
		}
		if seat.ReservaExpiracion.After(now) {
			return nil
		}

		q := clearReservation(tx, presentationID).Where("id = ?", seatID)
		if seat.ReservaSesionID != nil {
			q = q.Where("reserva_sesion_id = ?", *seat.ReservaSesionID)
		}
		res, err := q.Exec(ctx)
		if err != nil {
			return err
		}
		released = rowsAffected(res) == 1
		return nil
	})
	return released, err
}

// ApplySeatStatus writes a status change reported by the ticket service.
func (d *DB) ApplySeatStatus(ctx context.Context, event models.SeatStatusChangeEvent) (int, error) {
	if !event.Status.Valid() {
		return 0, fmt.Errorf("invalid seat status %q", event.Status)
	}
	if len(event.SeatIDs) == 0 {
		return 0, nil
	}

	q := d.Bun.NewUpdate().
		Model((*models.Seat)(nil)).
		Set("status = ?", event.Status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("presentation_id = ?", event.PresentationID).
		Where("id IN (?)", bun.In(event.SeatIDs))

	switch event.Status {
	case models.SeatStatusSold:
		q = q.Set("sold_to_user_id = ?", nullable(event.UserID)).
			Set("reserva_sesion_id = NULL").
			Set("reserva_expiracion = NULL")
	case models.SeatStatusAvailable:
		q = q.Set("user_id = NULL").
			Set("sold_to_user_id = NULL").
			Set("reserva_sesion_id = NULL").
			Set("reserva_expiracion = NULL")
	case models.SeatStatusReserved:
		q = q.Set("user_id = ?", nullable(event.UserID))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return rowsAffected(res), nil
}

func clearReservation(tx bun.Tx, presentationID string) *bun.UpdateQuery {
	return tx.NewUpdate().
		Model((*models.Seat)(nil)).
		Set("status = ?", models.SeatStatusAvailable).
		Set("user_id = NULL").
		Set("reserva_sesion_id = NULL").
		Set("reserva_expiracion = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("presentation_id = ?", presentationID)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
