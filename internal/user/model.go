package user

import (
	"time"

	"gymhub/internal/auth"
)

type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         auth.Role `db:"role" json:"role" swaggertype:"string" enums:"system_admin,gym_owner,staff"`
	IsApproved   bool      `db:"is_approved" json:"is_approved"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (u *User) Subject() auth.Subject {
	return auth.Subject{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// GymSummary is the gym a user works with: the first gym they own, or the
// gym that employs them.
type GymSummary struct {
	ID         int       `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	IsApproved bool      `db:"is_approved" json:"is_approved"`
	ExpiryDate time.Time `db:"expiry_date" json:"expiry_date"`
}

type Profile struct {
	User User        `json:"user"`
	Gym  *GymSummary `json:"gym,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=150"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}
