package jobs

import (
	"context"

	"tidynest/internal/logger"
	"tidynest/internal/services"
)

// SessionCleanupJob removes expired session rows every hour
type SessionCleanupJob struct {
	auth *services.AuthService
	log  logger.Logger
}

func NewSessionCleanupJob(auth *services.AuthService) *SessionCleanupJob {
	return &SessionCleanupJob{
		auth: auth,
		log:  logger.New("sessionCleanupJob"),
	}
}

func (j *SessionCleanupJob) Name() string {
	return "SessionCleanup"
}

func (j *SessionCleanupJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	deleted, err := j.auth.CleanupExpiredSessions(ctx)
	if err != nil {
		return log.Err("session cleanup failed", err)
	}

	if deleted > 0 {
		log.Info("Session cleanup finished", "deleted", deleted)
	}
	return nil
}

func (j *SessionCleanupJob) Schedule() services.Schedule {
	return services.Hourly
}
