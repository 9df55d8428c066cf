package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/smtp"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymhub/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

// тестовый сервис с мок Redis
func newTestService(rdb *redis.Client) *Service {
	return &Service{
		redis:    rdb,
		from:     "noreply@gymhub.io",
		fromName: "GymHub",
		smtpHost: "smtp.test.com",
		smtpPort: "587",
		smtpUser: "test@example.com",
		smtpPass: "password",
		retryIn:  time.Millisecond,
	}
}

func jobPayload(t *testing.T, job EmailJob) string {
	data, err := json.Marshal(job)
	require.NoError(t, err)
	return string(data)
}

func TestSend(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("emails", `.*`).SetVal(1)

	svc := newTestService(db)

	err := svc.Send(ctx, "owner@gym.io", "Owner", "Hello", "Test body")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendSkipsEmptyRecipient(t *testing.T) {
	db, mock := redismock.NewClientMock()

	svc := newTestService(db)

	assert.NoError(t, svc.Send(context.Background(), "", "Member", "Hello", "body"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDomainEmails(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		kind string
		send func(*Service) error
	}{
		{"notification", "notification", func(s *Service) error {
			return s.SendNotification(ctx, "owner@gym.io", "Owner", "Your gym is approved", "/gyms/1/dashboard")
		}},
		{"invitation", "invitation", func(s *Service) error {
			return s.SendInvitation(ctx, "friend@gym.io", "Iron Temple", "", "https://gymhub.io/register")
		}},
		{"expiry reminder", "expiry_reminder", func(s *Service) error {
			return s.SendExpiryReminder(ctx, "owner@gym.io", "Owner", "Iron Temple", time.Now().AddDate(0, 0, 7))
		}},
		{"member message", "member_message", func(s *Service) error {
			return s.SendMemberMessage(ctx, "member@gym.io", "Member", "Iron Temple", "Closed on Monday")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := redismock.NewClientMock()
			mock.Regexp().ExpectLPush("emails", `"kind":"`+tt.kind+`"`).SetVal(1)

			assert.NoError(t, tt.send(newTestService(db)))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.ExpectLLen("emails").SetVal(5)

	svc := newTestService(db)

	assert.Equal(t, int64(5), svc.QueueLength(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	// ошибка Redis
	mock.Regexp().ExpectLPush("emails", `.*`).SetErr(assert.AnError)

	svc := newTestService(db)

	err := svc.Send(ctx, "owner@gym.io", "Owner", "Hello", "Test body")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextDelivers(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payload := jobPayload(t, EmailJob{Kind: "notification", To: "owner@gym.io", Subject: "Hi", Body: "Body"})
	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", payload})

	svc := newTestService(db)
	var sentTo []string
	var message string
	svc.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sentTo = to
		message = string(msg)
		return nil
	}

	svc.processNext(context.Background())

	assert.Equal(t, []string{"owner@gym.io"}, sentTo)
	assert.True(t, strings.HasPrefix(message, "From: GymHub <noreply@gymhub.io>"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextRequeuesOnFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payload := jobPayload(t, EmailJob{Kind: "notification", To: "owner@gym.io", Tries: 0})
	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", payload})
	mock.Regexp().ExpectLPush("emails", `"tries":1`).SetVal(1)

	svc := newTestService(db)
	svc.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("smtp down")
	}

	svc.processNext(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNextMovesToFailedAfterMaxTries(t *testing.T) {
	db, mock := redismock.NewClientMock()
	payload := jobPayload(t, EmailJob{Kind: "notification", To: "owner@gym.io", Tries: 2})
	mock.ExpectBRPop(2*time.Second, "emails").SetVal([]string{"emails", payload})
	mock.Regexp().ExpectLPush("emails:failed", `smtp down`).SetVal(1)

	svc := newTestService(db)
	svc.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("smtp down")
	}

	svc.processNext(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}
