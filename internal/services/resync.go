package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SnapshotSweeper is the subset of the snapshot store the resync job needs.
type SnapshotSweeper interface {
	Cleanup(olderThan time.Time) error
}

// ResyncConfig controls the periodic reconciliation sweep.
type ResyncConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// Resyncer periodically refreshes every active view and prunes stale
// snapshots. Realtime events carry the normal reconciliation load; this is
// the backstop for events lost while a subscription was down.
type Resyncer struct {
	workspace *Workspace
	snapshots SnapshotSweeper
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       ResyncConfig
}

func NewResyncer(workspace *Workspace, snapshots SnapshotSweeper, cfg ResyncConfig, logger *zap.Logger) *Resyncer {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Resyncer{
		workspace: workspace,
		snapshots: snapshots,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		r.Sweep(ctx)
	})

	return r
}

// Start launches the cron scheduler.
func (r *Resyncer) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("resync sweeper started", zap.Duration("interval", r.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (r *Resyncer) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("resync sweeper stopped")
}

// Sweep runs one reconciliation pass synchronously.
func (r *Resyncer) Sweep(ctx context.Context) {
	if r.workspace != nil {
		if err := r.workspace.ResyncAll(ctx); err != nil {
			r.logger.Warn("resync pass finished with errors", zap.Error(err))
		}
	}
	if r.snapshots != nil {
		if err := r.snapshots.Cleanup(time.Now().Add(-r.cfg.Retention)); err != nil {
			r.logger.Warn("snapshot cleanup failed", zap.Error(err))
		}
	}
}
