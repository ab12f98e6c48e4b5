// Package newsletter stores newsletter subscriptions and sends the welcome mail.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-storefront/internal/email"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
	"ms-storefront/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrAlreadySubscribed = errors.New("already subscribed")
)

type Store interface {
	SubscriberExists(ctx context.Context, email string) (bool, error)
	InsertSubscriber(ctx context.Context, sub models.NewsletterSubscriber) error
}

type Service struct {
	Store  Store
	Mailer email.Sender
	Logger *logger.Logger

	validator *validator.Validate
	now       func() time.Time
}

func NewService(store Store, mailer email.Sender, log *logger.Logger) *Service {
	return &Service{
		Store:     store,
		Mailer:    mailer,
		Logger:    log,
		validator: validator.New(),
		now:       time.Now,
	}
}

// Subscribe normalizes and stores the address. A failed welcome mail does not
// fail the subscription.
func (s *Service) Subscribe(ctx context.Context, req models.SubscribeRequest) (*models.NewsletterSubscriber, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		metrics.NewsletterSubscriptionsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	exists, err := s.Store.SubscriberExists(ctx, req.Email)
	if err != nil {
		metrics.NewsletterSubscriptionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("check subscriber: %w", err)
	}
	if exists {
		metrics.NewsletterSubscriptionsTotal.WithLabelValues("duplicate").Inc()
		return nil, fmt.Errorf("%s: %w", req.Email, ErrAlreadySubscribed)
	}

	sub := models.NewsletterSubscriber{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Source:       strings.TrimSpace(req.Source),
		SubscribedAt: s.now().UTC(),
	}
	if err := s.Store.InsertSubscriber(ctx, sub); err != nil {
		// Lost a race with a concurrent subscribe for the same address.
		if exists, checkErr := s.Store.SubscriberExists(ctx, req.Email); checkErr == nil && exists {
			metrics.NewsletterSubscriptionsTotal.WithLabelValues("duplicate").Inc()
			return nil, fmt.Errorf("%s: %w", req.Email, ErrAlreadySubscribed)
		}
		metrics.NewsletterSubscriptionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("insert subscriber: %w", err)
	}
	metrics.NewsletterSubscriptionsTotal.WithLabelValues("subscribed").Inc()
	s.Logger.Info("NEWSLETTER", fmt.Sprintf("New subscriber %s", sub.Email))

	if s.Mailer != nil {
		if err := s.Mailer.SendWelcome(ctx, sub.Email); err != nil {
			s.Logger.Error("NEWSLETTER", fmt.Sprintf("Welcome mail to %s failed: %v", sub.Email, err))
		}
	}
	return &sub, nil
}
