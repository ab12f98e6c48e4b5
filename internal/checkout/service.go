package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-storefront/internal/kafka"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrInvalidHold = errors.New("invalid hold request")

type Store interface {
	GetPresentation(ctx context.Context, eventID, presentationID string) (*models.Presentation, error)
	ReserveSeats(ctx context.Context, presentationID string, seatIDs []string, userID, holdID string, expiresAt time.Time) error
	ReleaseHold(ctx context.Context, presentationID, holdID, userID string) ([]string, error)
	ReleaseExpiredSeat(ctx context.Context, presentationID, seatID string, now time.Time) (bool, error)
}

type SeatLocker interface {
	LockSeats(ctx context.Context, presentationID string, seatIDs []string, holdID string) (bool, error)
	UnlockSeats(ctx context.Context, presentationID string, seatIDs []string, holdID string) error
}

type Service struct {
	Store           Store
	Locks           SeatLocker
	Publisher       kafka.Publisher
	SeatStatusTopic string
	HoldTTL         time.Duration
	Logger          *logger.Logger

	validator *validator.Validate
	now       func() time.Time
}

func NewService(store Store, locks SeatLocker, publisher kafka.Publisher, seatStatusTopic string, holdTTL time.Duration, log *logger.Logger) *Service {
	return &Service{
		Store:           store,
		Locks:           locks,
		Publisher:       publisher,
		SeatStatusTopic: seatStatusTopic,
		HoldTTL:         holdTTL,
		Logger:          log,
		validator:       validator.New(),
		now:             time.Now,
	}
}

// PlaceHold reserves seats for userID. Seats are locked in Redis first and
// then marked reserved; either step failing leaves every seat untouched.
func (s *Service) PlaceHold(ctx context.Context, userID string, req models.HoldRequest) (*models.Hold, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHold, err)
	}
	if dup := firstDuplicate(req.SeatIDs); dup != "" {
		return nil, fmt.Errorf("%w: seat %s requested twice", ErrInvalidHold, dup)
	}
	if _, err := s.Store.GetPresentation(ctx, req.EventID, req.PresentationID); err != nil {
		return nil, err
	}

	holdID := uuid.NewString()
	// Computed before locking so the Redis key never outlives the stored expiry.
	expiresAt := s.now().UTC().Add(s.HoldTTL)

	ok, err := s.Locks.LockSeats(ctx, req.PresentationID, req.SeatIDs, holdID)
	if err != nil {
		metrics.SeatHoldsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("lock seats: %w", err)
	}
	if !ok {
		metrics.SeatHoldsTotal.WithLabelValues("conflict").Inc()
		return nil, fmt.Errorf("seats already held: %w", storage.ErrSeatUnavailable)
	}

	if err := s.Store.ReserveSeats(ctx, req.PresentationID, req.SeatIDs, userID, holdID, expiresAt); err != nil {
		if unlockErr := s.Locks.UnlockSeats(ctx, req.PresentationID, req.SeatIDs, holdID); unlockErr != nil {
			s.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to unlock seats of rejected hold %s: %v", holdID, unlockErr))
		}
		if errors.Is(err, storage.ErrSeatUnavailable) {
			metrics.SeatHoldsTotal.WithLabelValues("conflict").Inc()
		} else {
			metrics.SeatHoldsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.SeatHoldsTotal.WithLabelValues("placed").Inc()
	s.Logger.Info("CHECKOUT", fmt.Sprintf("Hold %s placed by %s on %d seats of %s", holdID, userID, len(req.SeatIDs), req.PresentationID))
	s.publish(ctx, req.PresentationID, req.SeatIDs, models.SeatStatusReserved, userID)

	return &models.Hold{
		HoldID:         holdID,
		PresentationID: req.PresentationID,
		SeatIDs:        req.SeatIDs,
		ExpiresAt:      expiresAt,
	}, nil
}

// ReleaseHold gives back the seats of one of userID's holds.
func (s *Service) ReleaseHold(ctx context.Context, userID, presentationID, holdID string) ([]string, error) {
	if presentationID == "" || holdID == "" {
		return nil, fmt.Errorf("%w: presentationId and holdId are required", ErrInvalidHold)
	}
	seatIDs, err := s.Store.ReleaseHold(ctx, presentationID, holdID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Locks.UnlockSeats(ctx, presentationID, seatIDs, holdID); err != nil {
		s.Logger.Error("CHECKOUT", fmt.Sprintf("Failed to unlock seats of released hold %s: %v", holdID, err))
	}
	metrics.SeatsReleasedTotal.WithLabelValues("released").Add(float64(len(seatIDs)))
	s.Logger.Info("CHECKOUT", fmt.Sprintf("Hold %s released by %s", holdID, userID))
	s.publish(ctx, presentationID, seatIDs, models.SeatStatusAvailable, "")
	return seatIDs, nil
}

// ReleaseExpiredSeat frees a seat whose Redis hold key has expired.
func (s *Service) ReleaseExpiredSeat(ctx context.Context, presentationID, seatID string) error {
	released, err := s.Store.ReleaseExpiredSeat(ctx, presentationID, seatID, s.now().UTC())
	if err != nil {
		return err
	}
	if !released {
		s.Logger.Debug("SEAT_UNLOCK", fmt.Sprintf("Seat %s of %s needs no release", seatID, presentationID))
		return nil
	}
	metrics.SeatsReleasedTotal.WithLabelValues("expired").Inc()
	s.Logger.Info("SEAT_UNLOCK", fmt.Sprintf("Seat hold expired for seat %s of %s", seatID, presentationID))
	s.publish(ctx, presentationID, []string{seatID}, models.SeatStatusAvailable, "")
	return nil
}

func (s *Service) publish(ctx context.Context, presentationID string, seatIDs []string, status models.SeatStatus, userID string) {
	event, err := models.NewSeatStatusChangeEvent(presentationID, seatIDs, status)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to build seat status event: %v", err))
		return
	}
	event.UserID = userID
	if err := s.Publisher.Publish(ctx, s.SeatStatusTopic, presentationID, event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish seat status for %s: %v", presentationID, err))
	}
}

func firstDuplicate(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return ""
}
