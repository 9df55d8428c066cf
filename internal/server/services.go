package server

import (
	"gymhub/internal/attendance"
	"gymhub/internal/billing"
	"gymhub/internal/config"
	"gymhub/internal/email"
	"gymhub/internal/gym"
	"gymhub/internal/member"
	"gymhub/internal/notification"
	"gymhub/internal/payment"
	"gymhub/internal/platform"
	"gymhub/internal/storage"
	"gymhub/internal/subscription"
	"gymhub/internal/user"

	"github.com/jmoiron/sqlx"
)

// Services is the wired application layer shared by the HTTP server and the
// background scheduler.
type Services struct {
	Users         user.Service
	Plans         subscription.Service
	Payments      payment.Repository
	Notifications notification.Service
	Billing       billing.Service
	Gyms          gym.Service
	Members       member.Service
	Attendance    attendance.Service
	Platform      platform.Service
	Hub           *notification.Hub
}

func NewServices(db *sqlx.DB, cfg *config.Config, emailService *email.Service, store storage.ObjectStore, hub *notification.Hub) *Services {
	notifications := notification.NewService(notification.NewRepository(db), hub, emailService)
	users := user.NewService(user.NewRepository(db), cfg.JWTSecret)
	billingService := billing.NewService(db, billing.NewRepository(db), gym.Lifecycle{}, notifications)
	gyms := gym.NewService(db, gym.NewRepository(db), billingService, notifications, cfg.PublicBaseURL)

	return &Services{
		Users:         users,
		Plans:         subscription.NewService(subscription.NewRepository(db)),
		Payments:      payment.NewRepository(db),
		Notifications: notifications,
		Billing:       billingService,
		Gyms:          gyms,
		Members:       member.NewService(db, member.NewRepository(db), store, notifications, emailService, cfg.QRSecret),
		Attendance:    attendance.NewService(db, attendance.NewRepository(db), cfg.QRSecret),
		Platform: platform.NewService(db, platform.NewRepository(db),
			gyms, billingService, notifications, users, emailService, cfg.PublicBaseURL),
		Hub: hub,
	}
}
