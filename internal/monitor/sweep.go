package monitor

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Sweeper periodically re-evaluates every registered process stream so
// drift surfaces even when no new completion events arrive.
type Sweeper struct {
	service  *Service
	interval time.Duration
	fanout   int
	logger   *slog.Logger
}

// NewSweeper builds a sweeper over the service's registered streams.
func NewSweeper(service *Service, interval time.Duration, opts ...SweepOption) *Sweeper {
	s := &Sweeper{
		service:  service,
		interval: interval,
		fanout:   4,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SweepOption configures the Sweeper.
type SweepOption func(*Sweeper)

// WithSweepLogger sets the sweep logger.
func WithSweepLogger(logger *slog.Logger) SweepOption {
	return func(s *Sweeper) { s.logger = logger }
}

// WithSweepFanout bounds concurrent stream evaluations per pass.
func WithSweepFanout(n int) SweepOption {
	return func(s *Sweeper) { s.fanout = n }
}

// Run blocks until ctx is cancelled, sweeping every interval. One failing
// stream never stops the pass or the loop.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over all registered streams.
func (s *Sweeper) Sweep(ctx context.Context) {
	streams := s.service.Streams()
	if len(streams) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanout)
	for _, stream := range streams {
		stream := stream
		g.Go(func() error {
			s.evaluate(gctx, stream)
			return nil
		})
	}
	_ = g.Wait()

	s.service.metrics.IncSweep()
	s.logger.InfoContext(ctx, "sweep pass completed", "streams", len(streams))
}

// evaluate isolates one stream: fetch and monitor, logging failures instead
// of propagating them.
func (s *Sweeper) evaluate(ctx context.Context, stream Stream) {
	batch, err := stream.Source.FetchBatch(ctx, stream.ProcessID)
	if err != nil {
		s.logger.WarnContext(ctx, "sweep fetch failed",
			"process_id", stream.ProcessID,
			"error", err,
		)
		return
	}

	if _, err := s.service.MonitorProcess(ctx, stream.ProcessID, stream.ProcessType, batch); err != nil {
		s.logger.WarnContext(ctx, "sweep evaluation failed",
			"process_id", stream.ProcessID,
			"process_type", stream.ProcessType,
			"error", err,
		)
	}
}
