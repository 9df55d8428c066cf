package notification

import (
	"context"
	"database/sql"
	"errors"

	"gymhub/internal/api"

	"github.com/jmoiron/sqlx"
)

const notificationColumns = `id, user_id, message, type, link, is_read, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Insert stores n through q. Packages that create notifications as part of
// a larger transaction pass their *sqlx.Tx.
func Insert(ctx context.Context, q sqlx.QueryerContext, n *Notification) error {
	query := `
		INSERT INTO notifications (user_id, message, type, link)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at
	`
	return q.QueryRowxContext(ctx, query, n.UserID, n.Message, n.Type, n.Link).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	return Insert(ctx, r.db, n)
}

func (r *repository) ListByUser(ctx context.Context, userID int, unreadOnly bool, page api.Pagination) ([]Notification, int, error) {
	where := ` WHERE user_id = $1`
	if unreadOnly {
		where += ` AND is_read = false`
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`+where, userID); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	var items []Notification
	if err := r.db.SelectContext(ctx, &items, query, userID, page.Size, page.Offset()); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) Latest(ctx context.Context, userID, limit int) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`

	var items []Notification
	if err := r.db.SelectContext(ctx, &items, query, userID, limit); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UnreadCount(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID)
	return count, err
}

// MarkRead only touches unread rows owned by userID. Marking a read
// notification again reports ErrAlreadyRead.
func (r *repository) MarkRead(ctx context.Context, id, userID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2 AND is_read = false`,
		id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var isRead bool
	err = r.db.GetContext(ctx, &isRead,
		`SELECT is_read FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return err
	}
	return ErrAlreadyRead
}

func (r *repository) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) FindRecipient(ctx context.Context, userID int) (*Recipient, error) {
	var rcpt Recipient
	err := r.db.GetContext(ctx, &rcpt, `SELECT id, username, email FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &rcpt, nil
}
