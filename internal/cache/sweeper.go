package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is how often expired state is purged.
const DefaultSweepInterval = 5 * time.Minute

// Sweepable is anything holding expiring state that can be purged in bulk.
type Sweepable interface {
	Name() string
	Sweep() int
}

// RunSweeper calls Sweep on every target each interval until ctx is done.
// It runs on its own goroutine, so request handling never waits on it.
func RunSweeper(ctx context.Context, interval time.Duration, targets ...Sweepable) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			SweepAll(targets...)
		}
	}
}

// SweepAll sweeps every target once.
func SweepAll(targets ...Sweepable) {
	for _, t := range targets {
		if removed := t.Sweep(); removed > 0 {
			zap.L().Debug("swept expired entries", zap.String("target", t.Name()), zap.Int("removed", removed))
		}
	}
}
