package notification

import (
	"context"

	"gymhub/internal/api"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID int, unreadOnly bool, page api.Pagination) ([]Notification, int, error)
	Latest(ctx context.Context, userID, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, id, userID int) error
	MarkAllRead(ctx context.Context, userID int) (int64, error)
	FindRecipient(ctx context.Context, userID int) (*Recipient, error)
}
