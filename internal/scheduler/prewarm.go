// Package scheduler implements the background jobs of the sentinelle
// service. The pre-warm loop keeps the adaptive cache populated for every
// monitored commune so the first dashboard request after a quiet period does
// not pay the upstream latency, and so risk tiers keep adapting even when
// nobody is polling.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"sentinelle/internal/cache"
	"sentinelle/internal/locations"
)

// SnapshotResolver is the cache surface the pre-warmer drives. The adaptive
// cache's own interval table decides whether a sweep actually reaches
// upstream; the pre-warmer just makes sure the question gets asked.
type SnapshotResolver interface {
	GetMany(ctx context.Context, locs []locations.Location) ([]cache.Snapshot, error)
}

// Prewarmer periodically sweeps the full commune catalog through the cache.
type Prewarmer struct {
	resolver SnapshotResolver
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewPrewarmer creates a pre-warm loop with the given sweep interval.
func NewPrewarmer(resolver SnapshotResolver, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Prewarmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prewarmer{
		resolver: resolver,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}
}

// Run sweeps immediately, then on every tick until the context is canceled.
// Sweep failures are logged and the loop continues; a transient upstream
// problem must not kill the background refresher.
func (p *Prewarmer) Run(ctx context.Context) {
	p.sweep(ctx)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pre-warm loop stopped")
			return
		case <-ticker.Chan():
			p.sweep(ctx)
		}
	}
}

func (p *Prewarmer) sweep(ctx context.Context) {
	start := p.clock.Now()
	snapshots, err := p.resolver.GetMany(ctx, locations.All())
	if err != nil {
		p.logger.Warn("pre-warm sweep aborted", slog.String("error", err.Error()))
		return
	}

	degraded := 0
	for _, snap := range snapshots {
		if snap.Current.Source.IsBackup() {
			degraded++
		}
	}
	p.logger.Info("pre-warm sweep completed",
		slog.Int("locations", len(snapshots)),
		slog.Int("degraded", degraded),
		slog.Duration("duration", p.clock.Since(start)),
	)
}
