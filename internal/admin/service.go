package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ms-storefront/internal/kafka"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"

	"github.com/go-playground/validator/v10"
)

var (
	ErrForbidden      = errors.New("admin role required")
	ErrInvalidRequest = errors.New("invalid request")
)

type Store interface {
	ResetPresentationSeats(ctx context.Context, eventID, presentationID string) ([]models.Seat, error)
	DeleteEvent(ctx context.Context, id string) (storage.DeleteResult, error)
	DeleteVenue(ctx context.Context, id string) error
	DeletePresentation(ctx context.Context, eventID, presentationID string) ([]string, error)
	InsertAdminLog(ctx context.Context, entry models.AdminLog) error
}

type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID, reason string) (*models.CancelOrderResult, error)
}

type SeatReleaser interface {
	ReleaseSeats(ctx context.Context, presentationID string, seatIDs []string) error
}

type Topics struct {
	SeatStatus      string
	OrdersCancelled string
	AdminActions    string
}

// Service runs admin operations. Every operation checks the caller's role,
// and successful ones are written to the audit log and published.
type Service struct {
	Store     Store
	Orders    OrderCanceller
	Locks     SeatReleaser
	Publisher kafka.Publisher
	Topics    Topics
	Logger    *logger.Logger

	validator *validator.Validate
}

func NewService(store Store, orders OrderCanceller, locks SeatReleaser, publisher kafka.Publisher, topics Topics, log *logger.Logger) *Service {
	return &Service{
		Store:     store,
		Orders:    orders,
		Locks:     locks,
		Publisher: publisher,
		Topics:    topics,
		Logger:    log,
		validator: validator.New(),
	}
}

func Authorize(user *models.SessionUser) error {
	if user == nil {
		return fmt.Errorf("no user: %w", ErrForbidden)
	}
	if !user.IsAdmin() {
		return fmt.Errorf("user %s has role %q: %w", user.UID, user.Role, ErrForbidden)
	}
	return nil
}

// CancelOrder has the ticket service cancel the order. Nothing is retried.
func (s *Service) CancelOrder(ctx context.Context, admin *models.SessionUser, req models.CancelOrderRequest) (*models.CancelOrderResult, error) {
	if err := Authorize(admin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	result, err := s.Orders.CancelOrder(ctx, req.OrderID, req.Reason)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, admin, models.ActionCancelOrder, "order", req.OrderID, map[string]string{
		"reason":        req.Reason,
		"releasedSeats": strconv.Itoa(len(result.ReleasedSeats)),
	})
	if err := s.Publisher.Publish(ctx, s.Topics.OrdersCancelled, req.OrderID, result); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish cancellation of %s: %v", req.OrderID, err))
	}
	return result, nil
}

// ResetSeats makes every seat of the presentation available again and
// returns how many seats were reset.
func (s *Service) ResetSeats(ctx context.Context, admin *models.SessionUser, eventID, presentationID string) (int, error) {
	if err := Authorize(admin); err != nil {
		return 0, err
	}

	before, err := s.Store.ResetPresentationSeats(ctx, eventID, presentationID)
	if err != nil {
		return 0, err
	}

	seatIDs := make([]string, len(before))
	held := 0
	for i, seat := range before {
		seatIDs[i] = seat.ID
		if seat.Status != models.SeatStatusAvailable {
			held++
		}
	}

	if err := s.Locks.ReleaseSeats(ctx, presentationID, seatIDs); err != nil {
		s.Logger.Error("REDIS", fmt.Sprintf("Failed to drop hold keys for %s: %v", presentationID, err))
	}
	s.audit(ctx, admin, models.ActionResetSeats, "presentation", presentationID, map[string]string{
		"eventId":    eventID,
		"seats":      strconv.Itoa(len(seatIDs)),
		"previously": strconv.Itoa(held),
	})
	if len(seatIDs) > 0 {
		metrics.SeatsReleasedTotal.WithLabelValues("reset").Add(float64(held))
		s.publishSeats(ctx, presentationID, seatIDs)
	}
	return len(seatIDs), nil
}

func (s *Service) DeleteEvent(ctx context.Context, admin *models.SessionUser, eventID string) (storage.DeleteResult, error) {
	if err := Authorize(admin); err != nil {
		return storage.DeleteResult{}, err
	}
	result, err := s.Store.DeleteEvent(ctx, eventID)
	if err != nil {
		return result, err
	}
	for presentationID, seatIDs := range result.SeatIDs {
		s.dropSeats(ctx, presentationID, seatIDs)
	}
	s.audit(ctx, admin, models.ActionDeleteEvent, "event", eventID, map[string]string{
		"presentations": strconv.Itoa(result.Presentations),
		"seats":         strconv.Itoa(result.Seats),
	})
	return result, nil
}

func (s *Service) DeleteVenue(ctx context.Context, admin *models.SessionUser, venueID string) error {
	if err := Authorize(admin); err != nil {
		return err
	}
	if err := s.Store.DeleteVenue(ctx, venueID); err != nil {
		return err
	}
	s.audit(ctx, admin, models.ActionDeleteVenue, "venue", venueID, nil)
	return nil
}

func (s *Service) DeletePresentation(ctx context.Context, admin *models.SessionUser, eventID, presentationID string) (int, error) {
	if err := Authorize(admin); err != nil {
		return 0, err
	}
	seatIDs, err := s.Store.DeletePresentation(ctx, eventID, presentationID)
	if err != nil {
		return 0, err
	}
	s.dropSeats(ctx, presentationID, seatIDs)
	s.audit(ctx, admin, models.ActionDeletePresentation, "presentation", presentationID, map[string]string{
		"eventId": eventID,
		"seats":   strconv.Itoa(len(seatIDs)),
	})
	return len(seatIDs), nil
}

// dropSeats clears hold keys of deleted seats and tells viewers they are gone.
// Failures are logged; the rows are already deleted.
func (s *Service) dropSeats(ctx context.Context, presentationID string, seatIDs []string) {
	if len(seatIDs) == 0 {
		return
	}
	if err := s.Locks.ReleaseSeats(ctx, presentationID, seatIDs); err != nil {
		s.Logger.Error("REDIS", fmt.Sprintf("Failed to drop hold keys for %s: %v", presentationID, err))
	}
	event := models.NewSeatsRemovedEvent(presentationID, seatIDs)
	if err := s.Publisher.Publish(ctx, s.Topics.SeatStatus, presentationID, event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish seat removal for %s: %v", presentationID, err))
	}
}

// audit failures are logged only; the operation itself already succeeded.
func (s *Service) audit(ctx context.Context, admin *models.SessionUser, action, targetType, targetID string, details map[string]string) {
	now := time.Now().UTC()
	entry := models.AdminLog{
		Action:     action,
		AdminID:    admin.UID,
		AdminEmail: admin.Email,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		CreatedAt:  now,
	}
	s.Logger.LogAdmin(action, admin.UID, targetType+" "+targetID)
	metrics.AdminActionsTotal.WithLabelValues(action).Inc()

	if err := s.Store.InsertAdminLog(ctx, entry); err != nil {
		s.Logger.Error("ADMIN", fmt.Sprintf("Failed to write audit entry %s on %s: %v", action, targetID, err))
	}

	event := models.AdminActionEvent{
		Action:     action,
		AdminID:    admin.UID,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		OccurredAt: now,
	}
	if err := s.Publisher.Publish(ctx, s.Topics.AdminActions, targetID, event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish admin action %s: %v", action, err))
	}
}

func (s *Service) publishSeats(ctx context.Context, presentationID string, seatIDs []string) {
	event, err := models.NewSeatStatusChangeEvent(presentationID, seatIDs, models.SeatStatusAvailable)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to build seat status event: %v", err))
		return
	}
	if err := s.Publisher.Publish(ctx, s.Topics.SeatStatus, presentationID, event); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish seat reset for %s: %v", presentationID, err))
	}
}
