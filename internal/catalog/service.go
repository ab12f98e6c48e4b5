// Package catalog serves the public storefront: published events, their
// presentations and seat maps, venues and blog posts.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"html"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"

	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultPostLimit = 20
	MaxPostLimit     = 100
)

type Store interface {
	ListEvents(ctx context.Context, category string, publishedOnly bool) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetVenue(ctx context.Context, id string) (*models.Venue, error)
	ListVenues(ctx context.Context) ([]models.Venue, error)
	ListPresentations(ctx context.Context, eventID string) ([]models.Presentation, error)
	GetPresentation(ctx context.Context, eventID, presentationID string) (*models.Presentation, error)
	ListSeats(ctx context.Context, presentationID string) ([]models.Seat, error)
	ListPublishedPosts(ctx context.Context, limit int) ([]models.BlogPost, error)
	GetPublishedPost(ctx context.Context, slug string) (*models.BlogPost, error)
}

type Service struct {
	Store  Store
	Logger *logger.Logger

	content *bluemonday.Policy
	text    *bluemonday.Policy
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{
		Store:   store,
		Logger:  log,
		content: bluemonday.UGCPolicy(),
		text:    bluemonday.StrictPolicy(),
	}
}

func (s *Service) ListEvents(ctx context.Context, category string) ([]models.Event, error) {
	return s.Store.ListEvents(ctx, category, true)
}

// EventDetails returns a published event with its venue and presentations.
// Drafts are reported as not found.
func (s *Service) EventDetails(ctx context.Context, eventID string) (*models.EventDetails, error) {
	event, err := s.publishedEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	details := &models.EventDetails{Event: *event}
	if event.VenueID != "" {
		venue, err := s.Store.GetVenue(ctx, event.VenueID)
		switch {
		case err == nil:
			details.Venue = venue
		case errors.Is(err, storage.ErrNotFound):
			s.Logger.Warn("CATALOG", fmt.Sprintf("Event %s references missing venue %s", event.ID, event.VenueID))
		default:
			return nil, err
		}
	}

	details.Presentations, err = s.Store.ListPresentations(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	return details, nil
}

// SeatMap lists the seats of a presentation without holder information.
func (s *Service) SeatMap(ctx context.Context, eventID, presentationID string) ([]models.PublicSeat, error) {
	if _, err := s.publishedEvent(ctx, eventID); err != nil {
		return nil, err
	}
	if _, err := s.Store.GetPresentation(ctx, eventID, presentationID); err != nil {
		return nil, err
	}

	seats, err := s.Store.ListSeats(ctx, presentationID)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicSeat, len(seats))
	for i, seat := range seats {
		out[i] = seat.Public()
	}
	return out, nil
}

func (s *Service) ListVenues(ctx context.Context) ([]models.Venue, error) {
	return s.Store.ListVenues(ctx)
}

func (s *Service) ListPosts(ctx context.Context, limit int) ([]models.BlogPost, error) {
	if limit <= 0 {
		limit = DefaultPostLimit
	}
	if limit > MaxPostLimit {
		limit = MaxPostLimit
	}

	posts, err := s.Store.ListPublishedPosts(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		s.sanitize(&posts[i])
	}
	return posts, nil
}

func (s *Service) GetPost(ctx context.Context, slug string) (*models.BlogPost, error) {
	post, err := s.Store.GetPublishedPost(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.sanitize(post)
	return post, nil
}

func (s *Service) publishedEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.Store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.Published {
		return nil, fmt.Errorf("event %s: %w", eventID, storage.ErrNotFound)
	}
	return event, nil
}

// sanitize keeps safe markup in the body and reduces title, excerpt and author
// to plain text.
func (s *Service) sanitize(post *models.BlogPost) {
	post.Title = s.plain(post.Title)
	post.Excerpt = s.plain(post.Excerpt)
	post.Author = s.plain(post.Author)
	if post.Content != "" {
		post.Content = s.content.Sanitize(post.Content)
	}
}

// plain strips every tag. StrictPolicy escapes what remains, so entities are
// decoded again for JSON output.
func (s *Service) plain(v string) string {
	return html.UnescapeString(s.text.Sanitize(v))
}
