package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KiiTuNp/SUPERvote/internal/domain/entities"
	usecaseErrors "github.com/KiiTuNp/SUPERvote/internal/usecase/errors"
	"github.com/KiiTuNp/SUPERvote/internal/usecase/poll"
	"github.com/KiiTuNp/SUPERvote/pkg/clock"
	"github.com/KiiTuNp/SUPERvote/pkg/jobcontext"
	"github.com/KiiTuNp/SUPERvote/pkg/metrics"
)

// Sweep names used in logs and metrics
const (
	RoomSweep = "room_expiry"
	PollSweep = "poll_timer"
)

// RoomExpirer removes rooms idle since before a cutoff
type RoomExpirer interface {
	ExpireInactiveRooms(ctx context.Context, cutoff time.Time) (int, error)
}

// PollStopper finds polls whose timer ran out and stops them
type PollStopper interface {
	DuePolls(ctx context.Context) ([]*entities.Poll, error)
	StopPoll(ctx context.Context, ref poll.PollRef, reason entities.StopReason) (*entities.Poll, error)
}

// Config holds the sweep cadence
type Config struct {
	RoomSweepInterval time.Duration
	PollSweepInterval time.Duration
	RoomTTL           time.Duration
	// SweepTimeout bounds one sweep run
	SweepTimeout time.Duration
	// ListRetries is how many times a failed listing query is retried within one sweep
	ListRetries uint64
}

// Scheduler runs the periodic room expiry and poll timer sweeps
type Scheduler struct {
	rooms   RoomExpirer
	polls   PollStopper
	clock   clock.Clock
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a scheduler
func New(rooms RoomExpirer, polls PollStopper, clk clock.Clock, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		rooms:   rooms,
		polls:   polls,
		clock:   clk,
		cfg:     cfg,
		logger:  logger.Named("scheduler"),
		metrics: m,
	}
}

// Run starts both sweep loops and blocks until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.loop(ctx, RoomSweep, s.cfg.RoomSweepInterval, func(ctx context.Context) error {
			_, err := s.SweepRooms(ctx)
			return err
		})
	})
	g.Go(func() error {
		return s.loop(ctx, PollSweep, s.cfg.PollSweepInterval, func(ctx context.Context) error {
			_, err := s.SweepPolls(ctx)
			return err
		})
	})

	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, sweep func(context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("%s sweep interval must be positive", name)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("👷 Sweep loop started",
		zap.String("sweep", name),
		zap.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("👷 Sweep loop stopping", zap.String("sweep", name))
			return nil

		case <-ticker.C:
			// a failed or panicking sweep is retried on the next tick
			if err := jobcontext.RunIsolated(ctx, name, sweep); err != nil && ctx.Err() == nil {
				s.logger.Error("❌ Sweep failed",
					zap.String("sweep", name),
					zap.Error(err),
				)
			}
		}
	}
}

// SweepRooms expires rooms idle for longer than RoomTTL
func (s *Scheduler) SweepRooms(parentCtx context.Context) (int, error) {
	ctx, cancel := jobcontext.JobBegin(parentCtx, RoomSweep, s.cfg.SweepTimeout)
	defer cancel()
	defer s.observe(ctx)

	cutoff := s.clock.Now().Add(-s.cfg.RoomTTL)
	expired, err := s.rooms.ExpireInactiveRooms(ctx, cutoff)
	for i := 0; i < expired; i++ {
		s.metrics.RoomExpired()
	}
	if expired > 0 {
		s.logger.Info("🧹 Expired inactive rooms",
			zap.Int("count", expired),
			zap.Time("cutoff", cutoff),
		)
	}
	return expired, err
}

// SweepPolls stops every active poll whose end time has passed. Each poll is
// handled on its own: a failure is logged and the sweep moves on.
func (s *Scheduler) SweepPolls(parentCtx context.Context) (int, error) {
	ctx, cancel := jobcontext.JobBegin(parentCtx, PollSweep, s.cfg.SweepTimeout)
	defer cancel()
	defer s.observe(ctx)

	due, err := s.duePolls(ctx)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	stopped := 0
	for _, p := range due {
		err := jobcontext.RunIsolated(ctx, p.ID, func(ctx context.Context) error {
			_, err := s.polls.StopPoll(ctx, poll.PollRef{PollID: p.ID}, entities.StopReasonTimerExpired)
			return err
		})
		switch {
		case err == nil:
			stopped++
		case errors.Is(err, usecaseErrors.ErrConflict), errors.Is(err, usecaseErrors.ErrNotFound):
			// stopped manually or removed with its room since it was listed
			s.logger.Debug("Poll no longer due",
				zap.String("poll_id", p.ID),
				zap.Error(err),
			)
		default:
			s.logger.Error("❌ Failed to stop expired poll",
				zap.String("poll_id", p.ID),
				zap.String("room_id", p.RoomID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("⏰ Stopped expired polls",
		zap.Int("due", len(due)),
		zap.Int("stopped", stopped),
	)
	return stopped, nil
}

// duePolls lists due polls, retrying transient store errors a few times
func (s *Scheduler) duePolls(ctx context.Context) ([]*entities.Poll, error) {
	var due []*entities.Poll
	op := func() error {
		polls, err := s.polls.DuePolls(ctx)
		if err != nil {
			if !jobcontext.IsRetryableError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		due = polls
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	notify := func(err error, wait time.Duration) {
		s.logger.Warn("⚠️ Listing due polls failed, retrying",
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(policy, s.cfg.ListRetries), ctx), notify)
	if err != nil {
		return nil, fmt.Errorf("failed to list due polls: %w", err)
	}
	return due, nil
}

func (s *Scheduler) observe(ctx context.Context) {
	meta := jobcontext.GetJobMetadata(ctx)
	if meta.StartTime.IsZero() {
		return
	}
	elapsed := time.Since(meta.StartTime)
	s.metrics.ObserveSweep(meta.JobType, elapsed.Seconds())
	s.logger.Debug("Sweep finished",
		zap.String("sweep", meta.JobType),
		zap.String("sweep_id", meta.JobID.String()),
		zap.Duration("elapsed", elapsed),
	)
}
