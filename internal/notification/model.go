package notification

import (
	"errors"
	"time"
)

type Type string

const (
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
	TypeSuccess Type = "success"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrAlreadyRead          = errors.New("notification already read")
)

type Notification struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Message   string    `db:"message" json:"message"`
	Type      Type      `db:"type" json:"type" swaggertype:"string" enums:"info,warning,error,success"`
	Link      string    `db:"link" json:"link"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MarkRead flips the read flag. A read notification never becomes unread.
func (n *Notification) MarkRead() error {
	if n.IsRead {
		return ErrAlreadyRead
	}
	n.IsRead = true
	return nil
}

// New builds an unsaved notification.
func New(userID int, message string, t Type, link string) *Notification {
	if t == "" {
		t = TypeInfo
	}
	return &Notification{
		UserID:  userID,
		Message: message,
		Type:    t,
		Link:    link,
	}
}

type Recipient struct {
	UserID   int    `db:"id"`
	Username string `db:"username"`
	Email    string `db:"email"`
}

type BroadcastRequest struct {
	Target  string `json:"target" binding:"required,oneof=all gym"`
	GymID   int    `json:"gym_id" binding:"required_if=Target gym"`
	Message string `json:"message" binding:"required,max=1000"`
	Type    Type   `json:"type" binding:"omitempty,oneof=info warning error success" swaggertype:"string" enums:"info,warning,error,success"`
}
