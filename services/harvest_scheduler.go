package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// HarvestScheduler triggers the pipeline on a cron schedule.
type HarvestScheduler struct {
	cron     *cron.Cron
	pipeline *HarvestPipeline
	spec     string
	schedule cron.Schedule
	loc      *time.Location

	mu  sync.Mutex
	ctx context.Context
}

func NewHarvestScheduler(pipeline *HarvestPipeline, spec, timezone string) (*HarvestScheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s := &HarvestScheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{}),
			cron.WithLocation(loc),
		),
		pipeline: pipeline,
		spec:     spec,
		schedule: schedule,
		loc:      loc,
		ctx:      context.Background(),
	}
	s.cron.Schedule(schedule, cron.FuncJob(s.trigger))
	return s, nil
}

// Start begins scheduling. Scheduled runs use ctx, so cancelling it
// interrupts a run in progress.
func (s *HarvestScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	slog.Info("harvest scheduler started", "schedule", s.spec, "next", s.Next())
}

// Stop stops scheduling; the returned context is done once a scheduled run
// in progress has returned.
func (s *HarvestScheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *HarvestScheduler) Spec() string {
	return s.spec
}

func (s *HarvestScheduler) Next() time.Time {
	return s.schedule.Next(time.Now().In(s.loc))
}

func (s *HarvestScheduler) trigger() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	_, err := s.pipeline.RunOnce(ctx, TriggerScheduler)
	if IsBusy(err) {
		slog.Warn("scheduled harvest skipped, a run is already active")
		return
	}
	if err != nil {
		slog.Error("scheduled harvest failed", "err", err)
	}
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(fmt.Sprintf("cron: %s", msg), keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(fmt.Sprintf("cron: %s", msg), append([]any{"err", err}, keysAndValues...)...)
}
