package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"gymhub/internal/logger"
	"gymhub/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

type EmailJob struct {
	Kind    string    `json:"kind"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	retryIn  time.Duration
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

// NewWithClient reuses an existing redis client.
func NewWithClient(rdb *redis.Client, fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass string) *Service {
	return &Service{
		redis:    rdb,
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	return s.enqueue(ctx, "generic", to, name, subject, body)
}

func (s *Service) enqueue(ctx context.Context, kind, to, name, subject, body string) error {
	if to == "" {
		return nil
	}
	job := EmailJob{
		Kind:    kind,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Tries:   0,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal email job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", to, err)
		return err
	}

	logger.Infof("Email queued: %s to %s", subject, to)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	logger.Debugf("Sending email to %s (attempt %d)", job.To, job.Tries)
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send email to %s: %v", job.To, err)

		if job.Tries < maxTries {
			s.wait(ctx)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, string(data))
			logger.Infof("Retrying email to %s (attempt %d)", job.To, job.Tries+1)
		} else {
			logger.Errorf("Email to %s failed after %d attempts", job.To, maxTries)
			metrics.RecordEmail(job.Kind, "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordEmail(job.Kind, "success")
	logger.Infof("Email sent successfully to %s", job.To)
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	addr := s.smtpHost + ":" + s.smtpPort
	return send(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) wait(ctx context.Context) {
	delay := s.retryIn
	if delay == 0 {
		delay = 5 * time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, string(data))
	logger.Errorf("Email moved to failed queue: %s", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SendNotification(ctx context.Context, to, name, message, link string) error {
	body := fmt.Sprintf(`Hi %s,

%s
`, name, message)
	if link != "" {
		body += "\nOpen: " + link + "\n"
	}
	body += "\n- GymHub Team"

	return s.enqueue(ctx, "notification", to, name, "GymHub notification", body)
}

// SendInvitation mails a registration link. note, when set, is placed
// above the link.
func (s *Service) SendInvitation(ctx context.Context, to, inviter, note, registrationURL string) error {
	subject := inviter + " invited you to GymHub"
	body := fmt.Sprintf("Hello,\n\n%s invited you to register your gym on GymHub.\n\n", inviter)
	if note != "" {
		body += note + "\n\n"
	}
	body += fmt.Sprintf("Register here: %s\n\n- GymHub Team", registrationURL)

	return s.enqueue(ctx, "invitation", to, "", subject, body)
}

func (s *Service) SendExpiryReminder(ctx context.Context, to, name, gymName string, expiry time.Time) error {
	subject := "Subscription expiring - " + gymName
	body := fmt.Sprintf(`Hi %s,

The GymHub subscription for %s expires on %s.
Renew before then to keep managing your members without interruption.

- GymHub Team`, name, gymName, expiry.Format("Jan 2, 2006"))

	return s.enqueue(ctx, "expiry_reminder", to, name, subject, body)
}

func (s *Service) SendMemberMessage(ctx context.Context, to, name, gymName, message string) error {
	subject := "Message from " + gymName
	body := fmt.Sprintf(`Hi %s,

%s

- %s`, name, message, gymName)

	return s.enqueue(ctx, "member_message", to, name, subject, body)
}
