package attendance

import (
	"context"
	"errors"
	"time"

	"gymhub/internal/api"
	"gymhub/internal/gym"
	"gymhub/internal/logger"
	"gymhub/internal/member"
	"gymhub/internal/metrics"

	"github.com/jmoiron/sqlx"
)

type Service interface {
	RecordManual(ctx context.Context, gymID int, req ManualRequest) (*Record, error)
	Scan(ctx context.Context, gymID int, payload string) (*member.Member, error)
	Report(ctx context.Context, gymID int, from, to time.Time) (*Report, error)
}

type service struct {
	db       *sqlx.DB
	repo     Repository
	qrSecret string
}

func NewService(db *sqlx.DB, repo Repository, qrSecret string) Service {
	return &service{db: db, repo: repo, qrSecret: qrSecret}
}

// RecordManual checks in a member or a staff record of gymID.
func (s *service) RecordManual(ctx context.Context, gymID int, req ManualRequest) (*Record, error) {
	var rec *Record

	switch {
	case req.MemberID != nil:
		m, err := member.FindByID(ctx, s.db, gymID, *req.MemberID)
		if err != nil {
			return nil, err
		}
		if !m.IsActive {
			return nil, ErrMemberInactive
		}
		rec = memberCheckIn(gymID, m.ID, MethodManual)

	case req.StaffID != nil:
		st, err := gym.FindStaff(ctx, s.db, gymID, *req.StaffID)
		if err != nil {
			return nil, err
		}
		rec = staffCheckIn(gymID, st.ID)

	default:
		return nil, gym.ErrStaffNotFound
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	metrics.RecordAttendance(string(rec.Kind), string(rec.Method))
	return rec, nil
}

// Scan verifies a member card and records a qr check-in. Repeated scans of
// the same card each add a row.
func (s *service) Scan(ctx context.Context, gymID int, payload string) (*member.Member, error) {
	claims, err := member.ParseQR(payload, s.qrSecret)
	if err != nil {
		metrics.RecordQRScanRejection("invalid")
		return nil, err
	}
	if claims.GymID != gymID {
		metrics.RecordQRScanRejection("wrong_gym")
		return nil, ErrWrongGym
	}

	m, err := member.FindByID(ctx, s.db, gymID, claims.MemberID)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			metrics.RecordQRScanRejection("not_found")
		}
		return nil, err
	}
	if !m.IsActive {
		metrics.RecordQRScanRejection("inactive")
		return nil, ErrMemberInactive
	}

	rec := memberCheckIn(gymID, m.ID, MethodQR)
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	metrics.RecordAttendance(string(rec.Kind), string(rec.Method))
	logger.Debug("qr check-in", "gym_id", gymID, "member_id", m.ID, "attendance_id", rec.ID)
	return m, nil
}

// Report lists every day of [from, to], zero-filled.
func (s *service) Report(ctx context.Context, gymID int, from, to time.Time) (*Report, error) {
	rows, err := s.repo.DailyCounts(ctx, gymID, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]dailyCount, len(rows))
	for _, r := range rows {
		byDay[r.Day.Format(api.DateLayout)] = r
	}

	days := []DayCount{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(api.DateLayout)
		r := byDay[key]
		days = append(days, DayCount{
			Date:    key,
			Members: r.Members,
			Staff:   r.Staff,
			Total:   r.Members + r.Staff,
		})
	}

	return &Report{
		From: from.Format(api.DateLayout),
		To:   to.Format(api.DateLayout),
		Days: days,
	}, nil
}
