package jobs

import (
	"context"

	"tidynest/internal/logger"
	"tidynest/internal/services"
)

// InventoryReportJob emails admins the weekly low-supply report
type InventoryReportJob struct {
	notifications *services.NotificationService
	log           logger.Logger
}

func NewInventoryReportJob(notifications *services.NotificationService) *InventoryReportJob {
	return &InventoryReportJob{
		notifications: notifications,
		log:           logger.New("inventoryReportJob"),
	}
}

func (j *InventoryReportJob) Name() string {
	return "WeeklyInventoryReport"
}

func (j *InventoryReportJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	if err := j.notifications.LowInventoryReport(ctx); err != nil {
		return log.Err("inventory report failed", err)
	}

	return nil
}

func (j *InventoryReportJob) Schedule() services.Schedule {
	return services.Weekly
}
