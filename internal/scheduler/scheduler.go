package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	sweepScratchTimeout   = 5 * time.Minute
)

// Sweeper removes scratch directories older than maxAge.
type Sweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration, now time.Time) (int, error)
}

type Scheduler struct {
	ctx     context.Context
	cron    *cron.Cron
	spec    string
	maxAge  time.Duration
	sweeper Sweeper
	log     *slog.Logger
}

func New(
	ctx context.Context,
	spec string,
	maxAge time.Duration,
	sweeper Sweeper,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:     ctx,
		cron:    c,
		spec:    spec,
		maxAge:  maxAge,
		sweeper: sweeper,
		log:     log,
	}
}

// Start sweeps once right away, picking up directories left by a previous
// process, then on every tick of the cron spec.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweepScratch); err != nil {
		return err
	}

	s.sweepScratch()
	s.cron.Start()

	return nil
}

// Stop halts the cron and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepScratch() {
	ctx, cancel := context.WithTimeout(s.ctx, sweepScratchTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	removed, err := s.sweeper.Sweep(ctx, s.maxAge, time.Now())
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to sweep scratch dirs",
			"error", err,
			"removed", removed,
			"maxAge", s.maxAge.String())
		return
	}

	if removed > 0 {
		s.log.InfoContext(ctx, "Scratch dirs are swept",
			"removed", removed,
			"maxAge", s.maxAge.String())
	}
}
