package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/clindevdep/RSS/internal/domain"
	"github.com/clindevdep/RSS/internal/ports"
)

// Scheduler wires the interval driver with the curation pipeline. Trigger
// times are shifted into loc so the active-hours window follows the
// configured timezone, not the host clock.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
	loc      *time.Location
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger, loc *time.Location) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger, loc: loc}
}

// Start registers the pipeline with the provided driver. Failed runs are
// logged distinctly from runs that simply had nothing new to send.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report, err := s.pipeline.Run(ctx, trigger.In(s.loc))
		if err != nil {
			s.logger.Error("curation run failed", "error", err, "outcome", report.Outcome)
			return
		}
		s.logger.Info("curation run finished",
			"outcome", report.Outcome,
			"fetched", report.Fetched,
			"scored", report.Scored,
			"score_failures", report.ScoreFailures,
			"below_cutoff", report.BelowCutoff,
			"duplicates", report.Duplicates,
			"priority", report.Priority,
			"surprise", report.Surprise)
		if report.Outcome == domain.OutcomeSent {
			s.logger.Info("digest delivered",
				"articles", report.Priority+report.Surprise)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
