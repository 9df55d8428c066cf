package platform

import (
	"errors"
	"strconv"

	"gymhub/internal/billing"
	"gymhub/internal/gym"
	"gymhub/internal/notification"
	"gymhub/internal/subscription"
)

var (
	ErrInvalidTimezone = errors.New("unknown timezone")
	ErrNoRecipients    = errors.New("no gym owners to notify")
)

const (
	keyCurrency        = "currency"
	keyTimezone        = "timezone"
	keySupportEmail    = "support_email"
	keyCompanyName     = "company_name"
	keyMaintenanceMode = "maintenance_mode"
)

// Settings are the platform-wide options kept in system_settings.
type Settings struct {
	Currency        string `json:"currency" example:"USD"`
	Timezone        string `json:"timezone" example:"Africa/Kigali"`
	SupportEmail    string `json:"support_email" example:"support@gymhub.io"`
	CompanyName     string `json:"company_name" example:"GymHub"`
	MaintenanceMode bool   `json:"maintenance_mode"`
}

func settingsFrom(values map[string]string) *Settings {
	maintenance, _ := strconv.ParseBool(values[keyMaintenanceMode])
	return &Settings{
		Currency:        values[keyCurrency],
		Timezone:        values[keyTimezone],
		SupportEmail:    values[keySupportEmail],
		CompanyName:     values[keyCompanyName],
		MaintenanceMode: maintenance,
	}
}

type setting struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func (s *Settings) pairs() []setting {
	return []setting{
		{keyCurrency, s.Currency},
		{keyTimezone, s.Timezone},
		{keySupportEmail, s.SupportEmail},
		{keyCompanyName, s.CompanyName},
		{keyMaintenanceMode, strconv.FormatBool(s.MaintenanceMode)},
	}
}

type SettingsRequest struct {
	Currency        string `json:"currency" binding:"required,oneof=USD EUR RWF"`
	Timezone        string `json:"timezone" binding:"required,max=64"`
	SupportEmail    string `json:"support_email" binding:"required,email"`
	CompanyName     string `json:"company_name" binding:"required,min=2,max=100"`
	MaintenanceMode bool   `json:"maintenance_mode"`
}

// Recipients of a broadcast: every gym owner, or the owner of one gym.
const (
	RecipientsAll = "all"
	RecipientsGym = "gym"
)

type BroadcastRequest struct {
	Recipients string            `json:"recipients" binding:"required,oneof=all gym"`
	GymID      int               `json:"gym_id" binding:"required_if=Recipients gym,gte=0"`
	Message    string            `json:"message" binding:"required,max=500"`
	Type       notification.Type `json:"type" binding:"omitempty,oneof=info success warning error" swaggertype:"string"`
}

type BroadcastResult struct {
	Sent int `json:"sent" example:"12"`
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Note  string `json:"note" binding:"max=500"`
}

type Dashboard struct {
	Stats          gym.PlatformStats           `json:"stats"`
	Finances       billing.Totals              `json:"finances"`
	RecentGyms     []gym.Gym                   `json:"recent_gyms"`
	LatestInvoices []billing.Invoice           `json:"latest_invoices"`
	Notifications  []notification.Notification `json:"notifications"`
}

type GymDetail struct {
	Gym             gym.Gym            `json:"gym"`
	Status          string             `json:"status" example:"active"`
	Plan            *subscription.Plan `json:"plan,omitempty"`
	MemberCount     int                `json:"member_count"`
	DaysUntilExpiry int                `json:"days_until_expiry"`
	RecentInvoices  []billing.Invoice  `json:"recent_invoices"`
}
