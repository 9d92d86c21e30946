// Package expiry lifts timed suspensions on a cron schedule.
package expiry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultSchedule  = "@every 1m"
	defaultBatchSize = 100
	maxBatches       = 50
)

type Expirer interface {
	ExpireSuspensions(ctx context.Context, limit int) (int, error)
}

type Job struct {
	expirer   Expirer
	batchSize int
	timeout   time.Duration
	logger    *zap.Logger
}

func New(expirer Expirer, batchSize int, logger *zap.Logger) *Job {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		expirer:   expirer,
		batchSize: batchSize,
		timeout:   30 * time.Second,
		logger:    logger,
	}
}

// Run drains expired suspensions batch by batch. A short batch ends the run.
func (j *Job) Run(ctx context.Context) (int, error) {
	if j.expirer == nil {
		return 0, fmt.Errorf("expiry job dependencies are not configured")
	}

	total := 0
	for i := 0; i < maxBatches; i++ {
		lifted, err := j.expirer.ExpireSuspensions(ctx, j.batchSize)
		if err != nil {
			return total, fmt.Errorf("expire suspensions: %w", err)
		}
		total += lifted
		if lifted < j.batchSize {
			break
		}
	}

	if total > 0 {
		j.logger.Info("suspension expiry completed", zap.Int("reinstated", total))
	}
	return total, nil
}

// Scheduler owns the cron runner for the expiry job.
type Scheduler struct {
	cron   *cron.Cron
	job    *Job
	logger *zap.Logger
}

func NewScheduler(job *Job, schedule string, loc *time.Location, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		schedule = DefaultSchedule
	}

	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{cron: c, job: job, logger: logger}
	if _, err := c.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("schedule expiry job %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("expiry scheduler started")
}

// Stop waits for a running tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("expiry scheduler stopped")
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.job.timeout)
	defer cancel()

	if _, err := s.job.Run(ctx); err != nil {
		s.logger.Error("expiry job failed", zap.Error(err))
	}
}
