package attendance

import (
	"errors"
	"time"
)

var (
	ErrWrongGym       = errors.New("qr code belongs to another gym")
	ErrMemberInactive = errors.New("membership is inactive")
)

type Kind string

const (
	KindMember Kind = "member"
	KindStaff  Kind = "staff"
)

type Method string

const (
	MethodQR     Method = "qr"
	MethodManual Method = "manual"
)

// Record is one check-in. Exactly one of MemberID and StaffID is set.
type Record struct {
	ID        int       `db:"id" json:"id"`
	GymID     int       `db:"gym_id" json:"gym_id"`
	Kind      Kind      `db:"kind" json:"kind" swaggertype:"string" enums:"member,staff"`
	MemberID  *int      `db:"member_id" json:"member_id,omitempty"`
	StaffID   *int      `db:"staff_id" json:"staff_id,omitempty"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
	Method    Method    `db:"method" json:"method" swaggertype:"string" enums:"qr,manual"`
}

func memberCheckIn(gymID, memberID int, method Method) *Record {
	return &Record{GymID: gymID, Kind: KindMember, MemberID: &memberID, Method: method}
}

func staffCheckIn(gymID, staffID int) *Record {
	return &Record{GymID: gymID, Kind: KindStaff, StaffID: &staffID, Method: MethodManual}
}

type ManualRequest struct {
	MemberID *int `json:"member_id" binding:"required_without=StaffID,excluded_with=StaffID"`
	StaffID  *int `json:"staff_id" binding:"omitempty,gt=0"`
}

type ScanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

type ScanResult struct {
	Status     string `json:"status" example:"success"`
	MemberName string `json:"member_name,omitempty" example:"Ann"`
	Message    string `json:"message,omitempty"`
}

type DayCount struct {
	Date    string `json:"date" example:"2025-03-10"`
	Members int    `json:"members"`
	Staff   int    `json:"staff"`
	Total   int    `json:"total"`
}

type Report struct {
	From string     `json:"from"`
	To   string     `json:"to"`
	Days []DayCount `json:"days"`
}

// dailyCount is one row of the grouped attendance query.
type dailyCount struct {
	Day     time.Time `db:"day"`
	Members int       `db:"members"`
	Staff   int       `db:"staff"`
}
