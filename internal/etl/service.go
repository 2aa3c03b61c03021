package etl

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/adsync/pkg/logger"
)

// ErrRunInProgress is returned when a trigger arrives while a pass is still
// executing. Runs never overlap; callers retry after the current pass ends.
var ErrRunInProgress = errors.New("etl: a pipeline run is already in progress")

// Service schedules pipeline passes on a fixed interval and accepts manual
// triggers between them. A single in-process lock serializes passes.
type Service struct {
	pipeline *Pipeline
	logg     *logger.Logger
	interval time.Duration

	mu sync.Mutex
}

func NewService(pipeline *Pipeline, interval time.Duration, logg *logger.Logger) *Service {
	return &Service{
		pipeline: pipeline,
		logg:     logg,
		interval: interval,
	}
}

// Start runs one pass immediately, then one per interval, until ctx is
// cancelled. It blocks.
func (s *Service) Start(ctx context.Context) {
	s.logg.Info(s.logg.WithField(ctx, "interval", s.interval.String()), "etl scheduler started")

	if _, err := s.TriggerRun(ctx, RunParams{}); err != nil {
		s.logg.Error(ctx, "initial pipeline run failed to start", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "etl scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.TriggerRun(ctx, RunParams{}); err != nil {
				s.logg.Error(ctx, "scheduled pipeline run failed to start", err)
			}
		}
	}
}

// TriggerRun executes one pass synchronously. It fails fast with
// ErrRunInProgress when another pass holds the lock.
func (s *Service) TriggerRun(ctx context.Context, params RunParams) (*Report, error) {
	if !s.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.mu.Unlock()

	return s.pipeline.Run(ctx, params), nil
}
