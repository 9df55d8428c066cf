package notification

import (
	"context"

	"gymhub/internal/api"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
)

// Publisher pushes a notification to the user's live connections.
type Publisher interface {
	Publish(userID int, n Notification)
}

// Mailer queues the email copy of a notification.
type Mailer interface {
	SendNotification(ctx context.Context, to, name, message, link string) error
}

type Service interface {
	Notify(ctx context.Context, userID int, message string, t Type, link string) (*Notification, error)
	Deliver(ctx context.Context, n Notification)
	List(ctx context.Context, userID int, unreadOnly bool, page api.Pagination) ([]Notification, int, error)
	Latest(ctx context.Context, userID, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, id, userID int) error
	MarkAllRead(ctx context.Context, userID int) (int64, error)
}

type service struct {
	repo      Repository
	publisher Publisher
	mailer    Mailer
}

func NewService(repo Repository, publisher Publisher, mailer Mailer) Service {
	return &service{
		repo:      repo,
		publisher: publisher,
		mailer:    mailer,
	}
}

func (s *service) Notify(ctx context.Context, userID int, message string, t Type, link string) (*Notification, error) {
	n := New(userID, message, t, link)
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.Deliver(ctx, *n)
	return n, nil
}

// Deliver fans a stored notification out to the live channel and the email
// queue. Delivery failures are logged; the stored row is the source of truth.
func (s *service) Deliver(ctx context.Context, n Notification) {
	metrics.RecordNotification(string(n.Type))

	if s.publisher != nil {
		s.publisher.Publish(n.UserID, n)
	}

	if s.mailer == nil {
		return
	}
	rcpt, err := s.repo.FindRecipient(ctx, n.UserID)
	if err != nil {
		logger.WithError(err).Error("notification recipient lookup failed", "user_id", n.UserID)
		return
	}
	if err := s.mailer.SendNotification(ctx, rcpt.Email, rcpt.Username, n.Message, n.Link); err != nil {
		logger.WithError(err).Error("failed to queue notification email", "notification_id", n.ID)
	}
}

func (s *service) List(ctx context.Context, userID int, unreadOnly bool, page api.Pagination) ([]Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, page)
}

func (s *service) Latest(ctx context.Context, userID, limit int) ([]Notification, error) {
	return s.repo.Latest(ctx, userID, limit)
}

func (s *service) UnreadCount(ctx context.Context, userID int) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, id, userID int) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *service) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}
