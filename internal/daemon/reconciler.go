package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/tilewm/internal/platform"
)

// ApplyFunc hands a display list to the event loop.
type ApplyFunc func(ctx context.Context, displays []platform.Display) error

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically re-reads the connected displays so hotplugged
// outputs are added and unplugged ones orphan their workspaces.
type Reconciler struct {
	interval time.Duration
	displays platform.DisplayLister
	apply    ApplyFunc
	logger   *slog.Logger
	trigger  chan struct{}
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, displays platform.DisplayLister, apply ApplyFunc) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		displays: displays,
		apply:    apply,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Run reconciles once immediately, then on every tick or Trigger. Blocks
// until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)
	r.ReconcileNow(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.ReconcileNow(ctx)
		case <-r.trigger:
			r.ReconcileNow(ctx)
		}
	}
}

// Trigger requests a pass without waiting for the next tick.
func (r *Reconciler) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// ReconcileNow performs a single reconciliation pass.
func (r *Reconciler) ReconcileNow(ctx context.Context) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	displays, err := r.displays.Displays()
	if err != nil {
		r.logger.Error("reconciler: failed to list displays", "error", err)
		return
	}

	if err := r.apply(ctx, displays); err != nil && ctx.Err() == nil {
		r.logger.Warn("reconciler: failed to apply displays", "error", err)
	}
}
