package storage_test

import (
	"context"
	"testing"
	"time"

	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"
	"ms-storefront/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetPresentationSeats(t *testing.T) {
	d := storagetest.New(t)
	ctx := context.Background()
	f := storagetest.Seed(t, d, "reset", 4)
	other := storagetest.Seed(t, d, "other", 2)

	expires := time.Now().Add(5 * time.Minute)
	require.NoError(t, d.ReserveSeats(ctx, f.Presentation.ID, []string{f.Seats[0].ID, f.Seats[1].ID}, "user-1", "hold-1", expires))
	_, err := d.ApplySeatStatus(ctx, models.SeatStatusChangeEvent{
		PresentationID: f.Presentation.ID,
		SeatIDs:        []string{f.Seats[2].ID},
		Status:         models.SeatStatusSold,
		UserID:         "user-2",
	})
	require.NoError(t, err)
	require.NoError(t, d.ReserveSeats(ctx, other.Presentation.ID, []string{other.Seats[0].ID}, "user-3", "hold-3", expires))

	before, err := d.ResetPresentationSeats(ctx, f.Event.ID, f.Presentation.ID)
	require.NoError(t, err)
	assert.Len(t, before, 4)

	seats, err := d.ListSeats(ctx, f.Presentation.ID)
	require.NoError(t, err)
	for _, s := range seats {
		assert.Equal(t, models.SeatStatusAvailable, s.Status, s.ID)
		assert.Nil(t, s.UserID, s.ID)
		assert.Nil(t, s.SoldToUserID, s.ID)
		assert.Nil(t, s.ReservaSesionID, s.ID)
		assert.Nil(t, s.ReservaExpiracion, s.ID)
	}

	// Seats of other presentations are untouched.
	otherSeats, err := d.ListSeats(ctx, other.Presentation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusReserved, otherSeats[0].Status)
}

func TestResetPresentationSeats_UnknownPresentation(t *testing.T) {
	d := storagetest.New(t)
	f := storagetest.Seed(t, d, "reset", 1)

	_, err := d.ResetPresentationSeats(context.Background(), f.Event.ID, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = d.ResetPresentationSeats(context.Background(), "wrong-event", f.Presentation.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResetPresentationSeats_NoSeats(t *testing.T) {
	d := storagetest.New(t)
	f := storagetest.Seed(t, d, "empty", 0)

	before, err := d.ResetPresentationSeats(context.Background(), f.Event.ID, f.Presentation.ID)
	require.NoError(t, err)
	assert.Empty(t, before)
}

func TestReserveSeats_AllOrNothing(t *testing.T) {
	d := storagetest.New(t)
	ctx := context.Background()
	f := storagetest.Seed(t, d, "hold", 3)
	expires := time.Now().Add(time.Minute)

	require.NoError(t, d.ReserveSeats(ctx, f.Presentation.ID, []string{f.Seats[0].ID}, "user-1", "hold-1", expires))

	err := d.ReserveSeats(ctx, f.Presentation.ID, []string{f.Seats[1].ID, f.Seats[0].ID}, "user-2", "hold-2", expires)
	assert.ErrorIs(t, err, storage.ErrSeatUnavailable)

	seats, err := d.ListSeats(ctx, f.Presentation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusAvailable, seats[1].Status)

	err = d.ReserveSeats(ctx, f.Presentation.ID, []string{"nope"}, "user-2", "hold-2", expires)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReleaseHold(t *testing.T) {
	d := storagetest.New(t)
	ctx := context.Background()
	f := storagetest.Seed(t, d, "release", 2)
	ids := storagetest.SeatIDs(f.Seats)

	require.NoError(t, d.ReserveSeats(ctx, f.Presentation.ID, ids, "user-1", "hold-1", time.Now().Add(time.Minute)))

	_, err := d.ReleaseHold(ctx, f.Presentation.ID, "hold-1", "someone-else")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	released, err := d.ReleaseHold(ctx, f.Presentation.ID, "hold-1", "user-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, released)

	seats, err := d.ListSeats(ctx, f.Presentation.ID)
	require.NoError(t, err)
	for _, s := range seats {
		assert.Equal(t, models.SeatStatusAvailable, s.Status)
	}
}

func TestReleaseExpiredSeat(t *testing.T) {
	d := storagetest.New(t)
	ctx := context.Background()
	f := storagetest.Seed(t, d, "expire", 2)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, d.ReserveSeats(ctx, f.Presentation.ID, []string{f.Seats[0].ID}, "user-1", "hold-1", now.Add(-time.Minute)))
	require.NoError(t, d.ReserveSeats(ctx, f.Presentation.ID, []string{f.Seats[1].ID}, "user-1", "hold-2", now.Add(time.Hour)))

	released, err := d.ReleaseExpiredSeat(ctx, f.Presentation.ID, f.Seats[0].ID, now)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = d.ReleaseExpiredSeat(ctx, f.Presentation.ID, f.Seats[1].ID, now)
	require.NoError(t, err)
	assert.False(t, released, "hold still running")

	released, err = d.ReleaseExpiredSeat(ctx, f.Presentation.ID, f.Seats[0].ID, now)
	require.NoError(t, err)
	assert.False(t, released, "already available")
}

func TestApplySeatStatus(t *testing.T) {
	d := storagetest.New(t)
	ctx := context.Background()
	f := storagetest.Seed(t, d, "apply", 2)
	ids := storagetest.SeatIDs(f.Seats)

	n, err := d.ApplySeatStatus(ctx, models.SeatStatusChangeEvent{
		PresentationID: f.Presentation.ID,
		SeatIDs:        ids,
		Status:         models.SeatStatusSold,
		UserID:         "buyer",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	seats, err := d.ListSeats(ctx, f.Presentation.ID)
	require.NoError(t, err)
	require.NotNil(t, seats[0].SoldToUserID)
	assert.Equal(t, "buyer", *seats[0].SoldToUserID)
	assert.Equal(t, models.SeatStatusSold, seats[0].Status)

	_, err = d.ApplySeatStatus(ctx, models.SeatStatusChangeEvent{PresentationID: f.Presentation.ID, SeatIDs: ids, Status: "gone"})
	assert.Error(t, err)
}
