package services

import (
	"context"
	"sync"
	"time"

	"tidynest/internal/logger"

	"github.com/go-co-op/gocron"
)

type Schedule int

const (
	Hourly    Schedule = iota
	Evening            // 19:00 UTC every day
	Overnight          // 02:00 UTC every day
	Morning            // 06:00 UTC every day
	Weekly             // Monday 07:00 UTC
)

// Job is a scheduled task. Jobs stay thin: they translate a tick into one
// service call and report the outcome.
type Job interface {
	Name() string
	Execute(ctx context.Context) error
	Schedule() Schedule
}

// JobInfo is the admin view of one registered job
type JobInfo struct {
	Name      string     `json:"name"`
	Running   bool       `json:"running"`
	LastRunAt *time.Time `json:"lastRunAt,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

type jobState struct {
	running   bool
	lastRunAt *time.Time
	lastError string
}

type SchedulerService struct {
	scheduler *gocron.Scheduler
	jobs      []Job
	states    map[string]*jobState
	log       logger.Logger
	started   bool
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewSchedulerService() *SchedulerService {
	scheduler := gocron.NewScheduler(time.UTC)

	ctx, cancel := context.WithCancel(context.Background())

	return &SchedulerService{
		scheduler: scheduler,
		jobs:      make([]Job, 0),
		states:    make(map[string]*jobState),
		log:       logger.New("scheduler"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// executeJob runs a job unless a previous run is still going. Overlapping
// runs of the same job are skipped, not queued: every job here is
// idempotent, so the next tick covers whatever the skipped run would have
// done.
func (s *SchedulerService) executeJob(ctx context.Context, job Job) {
	log := s.log.Function("executeJob")

	s.mu.Lock()
	state := s.states[job.Name()]
	if state.running {
		s.mu.Unlock()
		log.Warn("Job still running, skipping this tick", "job", job.Name())
		return
	}
	state.running = true
	s.mu.Unlock()

	started := time.Now()
	log.Info("Executing scheduled job", "job", job.Name())
	err := job.Execute(ctx)

	s.mu.Lock()
	state.running = false
	state.lastRunAt = &started
	if err != nil {
		state.lastError = err.Error()
	} else {
		state.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		_ = log.Err("Job execution failed", err, "job", job.Name())
	} else {
		log.Info("Job execution completed", "job", job.Name(), "duration", time.Since(started))
	}
}

// AddJob registers a job with the scheduler
func (s *SchedulerService) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("AddJob")

	run := func() {
		s.executeJob(s.ctx, job)
	}

	var err error
	switch job.Schedule() {
	case Hourly:
		_, err = s.scheduler.Every(1).Hour().Do(run)
	case Evening:
		_, err = s.scheduler.Every(1).Day().At("19:00").Do(run)
	case Overnight:
		_, err = s.scheduler.Every(1).Day().At("02:00").Do(run)
	case Morning:
		_, err = s.scheduler.Every(1).Day().At("06:00").Do(run)
	case Weekly:
		_, err = s.scheduler.Every(1).Week().Monday().At("07:00").Do(run)
	}

	if err != nil {
		return log.Err("failed to register job with scheduler", err, "job", job.Name())
	}

	s.jobs = append(s.jobs, job)
	s.states[job.Name()] = &jobState{}
	log.Info("Job registered", "job", job.Name())

	return nil
}

// Start begins the scheduler
func (s *SchedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("Start")

	if s.started {
		log.Info("Scheduler already started")
		return nil
	}

	if len(s.jobs) == 0 {
		log.Info("No jobs registered, scheduler will not start")
		return nil
	}

	log.Info("Starting scheduler", "jobCount", len(s.jobs))
	s.scheduler.StartAsync()
	s.started = true

	for _, job := range s.scheduler.Jobs() {
		log.Info("Job scheduled", "nextRun", job.NextRun())
	}

	return nil
}

// Stop gracefully shuts down the scheduler
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("Stop")

	if !s.started {
		return nil
	}

	log.Info("Stopping scheduler")

	if s.cancel != nil {
		s.cancel()
	}

	s.scheduler.Stop()
	s.started = false

	log.Info("Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *SchedulerService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Jobs returns the admin view of every registered job
func (s *SchedulerService) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for _, job := range s.jobs {
		state := s.states[job.Name()]
		infos = append(infos, JobInfo{
			Name:      job.Name(),
			Running:   state.running,
			LastRunAt: state.lastRunAt,
			LastError: state.lastError,
		})
	}
	return infos
}

// TriggerJobByName manually executes a registered job. It funnels through
// the same guarded path as scheduled runs, so a manual trigger cannot
// overlap a tick already in flight.
func (s *SchedulerService) TriggerJobByName(ctx context.Context, jobName string) error {
	s.mu.Lock()

	log := s.log.Function("TriggerJobByName")

	var targetJob Job
	for _, job := range s.jobs {
		if job.Name() == jobName {
			targetJob = job
			break
		}
	}
	s.mu.Unlock()

	if targetJob == nil {
		return log.Error("job not found", "job", jobName)
	}

	go func() {
		log.Info("Manually triggering job", "job", jobName)
		s.executeJob(ctx, targetJob)
	}()

	return nil
}
