package jobs

import (
	"context"

	"tidynest/internal/logger"
	"tidynest/internal/services"
)

// OverdueSweepJob flags past-due invoices each morning and notifies their
// customers
type OverdueSweepJob struct {
	reconciliation *services.ReconciliationService
	log            logger.Logger
}

func NewOverdueSweepJob(reconciliation *services.ReconciliationService) *OverdueSweepJob {
	return &OverdueSweepJob{
		reconciliation: reconciliation,
		log:            logger.New("overdueSweepJob"),
	}
}

func (j *OverdueSweepJob) Name() string {
	return "OverdueSweep"
}

func (j *OverdueSweepJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	result, err := j.reconciliation.SweepOverdue(ctx)
	if err != nil {
		return log.Err("overdue sweep failed", err)
	}

	log.Info("Overdue sweep finished",
		"examined", result.Examined,
		"marked", result.MarkedCount,
		"failures", len(result.Failures),
	)
	return nil
}

func (j *OverdueSweepJob) Schedule() services.Schedule {
	return services.Morning
}
