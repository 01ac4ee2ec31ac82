package selection

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Pruner removes expired selections
type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// Sweeper runs periodic prunes so expired selections do not wait for a read
type Sweeper struct {
	pruner   Pruner
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a sweeper pruning every interval
func NewSweeper(pruner Pruner, interval time.Duration, zapLogger *zap.Logger) *Sweeper {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Sweeper{
		pruner:   pruner,
		interval: interval,
		logger:   zapLogger,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Warn("pending_selection_sweep_failed", zap.Error(err))
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	if s.pruner == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	n, err := s.pruner.Prune(ctx)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	if n > 0 {
		s.logger.Debug("pending_selections_pruned", zap.Int("count", n))
	}
	return nil
}
