package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is one periodic task of the scheduler.
type Job struct {
	Name     string
	Interval time.Duration
	// Immediate runs the job once on start instead of waiting a full interval.
	Immediate bool
	Run       func(ctx context.Context) error
}

type JobInfo struct {
	Name     string `json:"name"`
	Interval string `json:"interval"`
}

type Scheduler interface {
	Start()
	Stop()
	Running() bool
	Jobs() []JobInfo
}

type scheduler struct {
	jobs      []Job
	logger    *slog.Logger
	mtx       sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	// wg tracks the loops of the current run only.
	wg *sync.WaitGroup
}

func NewScheduler(logger *slog.Logger, jobs ...Job) (Scheduler, error) {
	for _, job := range jobs {
		if job.Interval <= 0 {
			return nil, fmt.Errorf("job %q: interval must be positive", job.Name)
		}
		if job.Run == nil {
			return nil, fmt.Errorf("job %q: missing run function", job.Name)
		}
	}
	return &scheduler{
		jobs:   jobs,
		logger: logger,
	}, nil
}

// Start launches one ticker loop per job. Calling Start on a running scheduler
// does nothing.
func (s *scheduler) Start() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.isRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	s.cancel, s.wg = cancel, wg
	for _, job := range s.jobs {
		wg.Go(func() {
			s.loop(ctx, job)
		})
	}
	s.isRunning = true
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.jobs)))
}

// Stop cancels the job loops and waits for running jobs to return. The
// scheduler reports not running as soon as the loops are cancelled.
func (s *scheduler) Stop() {
	s.mtx.Lock()
	if !s.isRunning {
		s.mtx.Unlock()
		return
	}
	s.cancel()
	s.isRunning = false
	wg := s.wg
	s.mtx.Unlock()

	wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *scheduler) Running() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.isRunning
}

func (s *scheduler) Jobs() []JobInfo {
	infos := make([]JobInfo, 0, len(s.jobs))
	for _, job := range s.jobs {
		infos = append(infos, JobInfo{Name: job.Name, Interval: job.Interval.String()})
	}
	return infos
}

func (s *scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	if job.Immediate {
		s.runJob(ctx, job)
	}

	for {
		select {
		case <-ticker.C:
			s.runJob(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

func (s *scheduler) runJob(ctx context.Context, job Job) {
	jobLogger := s.logger.With(slog.String("job", job.Name))
	start := time.Now()

	defer func() {
		jobDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
		if rec := recover(); rec != nil {
			jobRunsTotal.WithLabelValues(job.Name, "panic").Inc()
			jobLogger.Error("job panicked", "panic", fmt.Sprint(rec))
		}
	}()

	err := job.Run(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		jobRunsTotal.WithLabelValues(job.Name, "canceled").Inc()
		jobLogger.Info("job interrupted by shutdown")
		return
	}
	if err != nil {
		jobRunsTotal.WithLabelValues(job.Name, "error").Inc()
		jobLogger.Error("job failed", "error", err.Error())
		return
	}
	jobRunsTotal.WithLabelValues(job.Name, "ok").Inc()
}
