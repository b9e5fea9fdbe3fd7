package jobs

import (
	"context"

	"tidynest/internal/logger"
	"tidynest/internal/services"
)

// ReminderJob sends next-day booking reminders every evening
type ReminderJob struct {
	notifications *services.NotificationService
	log           logger.Logger
}

func NewReminderJob(notifications *services.NotificationService) *ReminderJob {
	return &ReminderJob{
		notifications: notifications,
		log:           logger.New("reminderJob"),
	}
}

func (j *ReminderJob) Name() string {
	return "NightlyReminders"
}

func (j *ReminderJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	result, err := j.notifications.SendReminders(ctx)
	if err != nil {
		return log.Err("reminder run failed", err)
	}

	log.Info("Reminder run finished", "eligible", result.Eligible, "sent", result.Sent)
	return nil
}

func (j *ReminderJob) Schedule() services.Schedule {
	return services.Evening
}
