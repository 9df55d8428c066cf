package scheduler

import (
	"context"
	"fmt"
	"time"

	"gymhub/internal/api"
	"gymhub/internal/gym"
	"gymhub/internal/logger"
	"gymhub/internal/metrics"
	"gymhub/internal/notification"

	"github.com/go-co-op/gocron/v2"
)

// reminderDays are the distances to expiry at which owners are reminded.
var reminderDays = []int{7, 1}

type Queue interface {
	QueueLength(ctx context.Context) int64
}

type Gyms interface {
	ExpiringIn(ctx context.Context, days ...int) ([]gym.ExpiringGym, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int, message string, t notification.Type, link string) (*notification.Notification, error)
}

type Mailer interface {
	SendExpiryReminder(ctx context.Context, to, name, gymName string, expiry time.Time) error
}

// Scheduler runs the periodic jobs: the email queue gauge every minute and
// the expiry reminders once a day.
type Scheduler struct {
	scheduler    gocron.Scheduler
	queue        Queue
	gyms         Gyms
	notifier     Notifier
	mailer       Mailer
	reminderHour int
	ctx          context.Context
	cancel       context.CancelFunc
	now          func() time.Time
}

func New(queue Queue, gyms Gyms, notifier Notifier, mailer Mailer, reminderHour int) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &Scheduler{
		scheduler:    s,
		queue:        queue,
		gyms:         gyms,
		notifier:     notifier,
		mailer:       mailer,
		reminderHour: reminderHour,
		ctx:          ctx,
		cancel:       cancel,
		now:          time.Now,
	}

	if err := js.registerJobs(); err != nil {
		cancel()
		_ = s.Shutdown()
		return nil, err
	}
	return js, nil
}

func (js *Scheduler) registerJobs() error {
	if _, err := js.scheduler.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(js.updateQueueGauge),
		gocron.WithName("email-queue-gauge"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("failed to create email queue job: %w", err)
	}

	if _, err := js.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(js.reminderHour), 0, 0))),
		gocron.NewTask(js.sendExpiryReminders),
		gocron.WithName("expiry-reminders"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("failed to create expiry reminder job: %w", err)
	}

	logger.Info("background jobs registered", "count", len(js.scheduler.Jobs()), "reminder_hour", js.reminderHour)
	return nil
}

func (js *Scheduler) Start() {
	logger.Info("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return.
func (js *Scheduler) Stop() error {
	logger.Info("Stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

func (js *Scheduler) updateQueueGauge() {
	metrics.EmailQueueLength.Set(float64(js.queue.QueueLength(js.ctx)))
}

// sendExpiryReminders notifies and mails the owners of gyms expiring in
// exactly one of reminderDays. It only reads expiry dates.
func (js *Scheduler) sendExpiryReminders() {
	gyms, err := js.gyms.ExpiringIn(js.ctx, reminderDays...)
	if err != nil {
		logger.WithError(err).Error("expiry reminder lookup failed")
		return
	}

	today := api.Today(js.now())
	for _, g := range gyms {
		days := int(g.ExpiryDate.Sub(today).Hours() / 24)
		message := fmt.Sprintf("The subscription for %s expires in %d day(s), on %s. Renew to avoid interruption.",
			g.Name, days, g.ExpiryDate.Format(api.DateLayout))

		if _, err := js.notifier.Notify(js.ctx, g.OwnerID, message, notification.TypeWarning,
			fmt.Sprintf("/gyms/%d/dashboard", g.ID)); err != nil {
			logger.WithError(err).Error("expiry notification failed", "gym_id", g.ID)
		}
		if err := js.mailer.SendExpiryReminder(js.ctx, g.OwnerEmail, g.OwnerName, g.Name, g.ExpiryDate); err != nil {
			logger.WithError(err).Error("expiry email failed", "gym_id", g.ID)
		}
	}

	logger.Info("expiry reminders sent", "gyms", len(gyms))
}
