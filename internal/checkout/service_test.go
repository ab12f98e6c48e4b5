package checkout

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	holdlocks "ms-storefront/internal/checkout/redis"
	"ms-storefront/internal/kafka/kafkatest"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"
	"ms-storefront/internal/storage/storagetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seatTopic = "storefront.seats.status"

type testEnv struct {
	svc     *Service
	db      *storage.DB
	mr      *miniredis.Miniredis
	locks   *holdlocks.SeatLocks
	events  *kafkatest.Recorder
	fixture storagetest.Fixture
}

func setupService(t *testing.T) *testEnv {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	d := storagetest.New(t)
	f := storagetest.Seed(t, d, "co", 4)
	locks := holdlocks.NewSeatLocks(client, 10*time.Minute)
	events := &kafkatest.Recorder{}
	svc := NewService(d, locks, events, seatTopic, 10*time.Minute, logger.NewLoggerWithWriter(&bytes.Buffer{}))

	return &testEnv{svc: svc, db: d, mr: mr, locks: locks, events: events, fixture: f}
}

func (e *testEnv) request(seatIdx ...int) models.HoldRequest {
	req := models.HoldRequest{EventID: e.fixture.Event.ID, PresentationID: e.fixture.Presentation.ID}
	for _, i := range seatIdx {
		req.SeatIDs = append(req.SeatIDs, e.fixture.Seats[i].ID)
	}
	return req
}

func TestPlaceHold(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	hold, err := env.svc.PlaceHold(ctx, "user-1", env.request(0, 1))
	require.NoError(t, err)
	assert.NotEmpty(t, hold.HoldID)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), hold.ExpiresAt, 5*time.Second)

	seats, err := env.db.ListSeats(ctx, env.fixture.Presentation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusReserved, seats[0].Status)
	require.NotNil(t, seats[0].ReservaSesionID)
	assert.Equal(t, hold.HoldID, *seats[0].ReservaSesionID)
	assert.Equal(t, models.SeatStatusAvailable, seats[2].Status)

	holder, err := env.locks.Holder(ctx, env.fixture.Presentation.ID, env.fixture.Seats[1].ID)
	require.NoError(t, err)
	assert.Equal(t, hold.HoldID, holder)

	msgs := env.events.OnTopic(seatTopic)
	require.Len(t, msgs, 1)
	event := msgs[0].Event.(models.SeatStatusChangeEvent)
	assert.Equal(t, models.SeatStatusReserved, event.Status)
	assert.Equal(t, "user-1", event.UserID)
}

func TestPlaceHold_ConflictLeavesNothingBehind(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.PlaceHold(ctx, "user-1", env.request(1))
	require.NoError(t, err)

	_, err = env.svc.PlaceHold(ctx, "user-2", env.request(0, 1, 2))
	assert.ErrorIs(t, err, storage.ErrSeatUnavailable)

	assert.False(t, env.mr.Exists(holdlocks.HoldKey(env.fixture.Presentation.ID, env.fixture.Seats[0].ID)))
	assert.False(t, env.mr.Exists(holdlocks.HoldKey(env.fixture.Presentation.ID, env.fixture.Seats[2].ID)))
	seats, err := env.db.ListSeats(ctx, env.fixture.Presentation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusAvailable, seats[0].Status)
	assert.Equal(t, models.SeatStatusAvailable, seats[2].Status)
}

func TestPlaceHold_SoldSeatUnlocksRedis(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.db.ApplySeatStatus(ctx, models.SeatStatusChangeEvent{
		PresentationID: env.fixture.Presentation.ID,
		SeatIDs:        []string{env.fixture.Seats[3].ID},
		Status:         models.SeatStatusSold,
	})
	require.NoError(t, err)

	_, err = env.svc.PlaceHold(ctx, "user-1", env.request(2, 3))
	assert.ErrorIs(t, err, storage.ErrSeatUnavailable)
	assert.False(t, env.mr.Exists(holdlocks.HoldKey(env.fixture.Presentation.ID, env.fixture.Seats[2].ID)))
}

func TestPlaceHold_Invalid(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.PlaceHold(ctx, "user-1", models.HoldRequest{EventID: env.fixture.Event.ID, PresentationID: env.fixture.Presentation.ID})
	assert.ErrorIs(t, err, ErrInvalidHold)

	_, err = env.svc.PlaceHold(ctx, "user-1", env.request(0, 0))
	assert.ErrorIs(t, err, ErrInvalidHold)

	req := env.request(0)
	req.EventID = "other-event"
	_, err = env.svc.PlaceHold(ctx, "user-1", req)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReleaseHold(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	hold, err := env.svc.PlaceHold(ctx, "user-1", env.request(0, 1))
	require.NoError(t, err)

	_, err = env.svc.ReleaseHold(ctx, "user-2", hold.PresentationID, hold.HoldID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	released, err := env.svc.ReleaseHold(ctx, "user-1", hold.PresentationID, hold.HoldID)
	require.NoError(t, err)
	assert.ElementsMatch(t, hold.SeatIDs, released)
	assert.False(t, env.mr.Exists(holdlocks.HoldKey(hold.PresentationID, hold.SeatIDs[0])))

	_, err = env.svc.PlaceHold(ctx, "user-2", env.request(0, 1))
	assert.NoError(t, err)
}

func TestHandleExpiredKey(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	hold, err := env.svc.PlaceHold(ctx, "user-1", env.request(0))
	require.NoError(t, err)

	env.svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
	env.mr.FastForward(11 * time.Minute)

	HandleExpiredKey(ctx, holdlocks.HoldKey(hold.PresentationID, hold.SeatIDs[0]), env.svc, env.svc.Logger)
	HandleExpiredKey(ctx, "m2m_token", env.svc, env.svc.Logger)

	seats, err := env.db.ListSeats(ctx, hold.PresentationID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusAvailable, seats[0].Status)
	assert.Nil(t, seats[0].ReservaSesionID)

	msgs := env.events.OnTopic(seatTopic)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.SeatStatusAvailable, msgs[1].Event.(models.SeatStatusChangeEvent).Status)
}

func TestReleaseExpiredSeat_KeepsRunningHold(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	_, err := env.svc.PlaceHold(ctx, "user-1", env.request(0))
	require.NoError(t, err)

	require.NoError(t, env.svc.ReleaseExpiredSeat(ctx, env.fixture.Presentation.ID, env.fixture.Seats[0].ID))
	seats, err := env.db.ListSeats(ctx, env.fixture.Presentation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusReserved, seats[0].Status)
}

func TestPlaceHold_PublishFailureIsNotFatal(t *testing.T) {
	env := setupService(t)
	env.events.Err = errors.New("broker down")

	_, err := env.svc.PlaceHold(context.Background(), "user-1", env.request(0))
	assert.NoError(t, err)
}
