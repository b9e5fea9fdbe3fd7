package jobs

import (
	"context"

	"tidynest/internal/logger"
	"tidynest/internal/services"
)

// RecurringGenerationJob materializes recurring templates into bookings
// overnight, ahead of the business day.
type RecurringGenerationJob struct {
	recurring *services.RecurringService
	log       logger.Logger
}

func NewRecurringGenerationJob(recurring *services.RecurringService) *RecurringGenerationJob {
	return &RecurringGenerationJob{
		recurring: recurring,
		log:       logger.New("recurringGenerationJob"),
	}
}

func (j *RecurringGenerationJob) Name() string {
	return "RecurringGeneration"
}

func (j *RecurringGenerationJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	result, err := j.recurring.GenerateOccurrences(ctx)
	if err != nil {
		return log.Err("generation run failed", err)
	}

	log.Info("Generation run finished",
		"templates", result.TemplatesProcessed,
		"created", result.BookingsCreated,
		"failures", len(result.Failures),
	)
	return nil
}

func (j *RecurringGenerationJob) Schedule() services.Schedule {
	return services.Overnight
}
