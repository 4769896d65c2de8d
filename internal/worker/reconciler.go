// Package worker runs background maintenance over ingest operations.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/config"
)

const staleFailureReason = "reconciled: pending timeout"

// Reconciler sweeps operations stuck in PENDING. A crash between claiming an
// idempotency key and settling it leaves the key blocked forever; the sweep
// marks such operations FAILED so clients get a definitive answer. It never
// re-invokes the embedding service: whether the original call went out is
// unknowable, so retrying from here could duplicate the side effect.
type Reconciler struct {
	operations application.OperationRepository
	interval   time.Duration
	batchSize  int
	pendingTTL time.Duration
	logger     *slog.Logger
}

func NewReconciler(operations application.OperationRepository, cfg config.WorkerConfig, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		operations: operations,
		interval:   cfg.Interval,
		batchSize:  cfg.BatchSize,
		pendingTTL: cfg.PendingTTL,
		logger:     logger,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting background reconciler",
		"interval", r.interval, "batch_size", r.batchSize, "pending_ttl", r.pendingTTL)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping background reconciler")
			return
		case <-ticker.C:
			r.run(ctx)
		}
	}
}

// RunOnce executes a single reconciliation cycle.
func (r *Reconciler) RunOnce(ctx context.Context) {
	r.run(ctx)
}

func (r *Reconciler) run(ctx context.Context) {
	stale, err := r.operations.FindStalePending(ctx, r.pendingTTL, r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch stale pending operations", "error", err)
		return
	}

	if len(stale) == 0 {
		return
	}

	r.logger.Info("reconciling stale operations", "count", len(stale))

	for _, op := range stale {
		if err := r.operations.MarkFailed(ctx, op.Key, staleFailureReason); err != nil {
			// A concurrent settle wins the conditional update; that is fine.
			r.logger.Warn("could not mark stale operation failed", "key", op.Key, "error", err)
			continue
		}
		r.logger.Info("marked stale operation as failed", "key", op.Key, "age", time.Since(op.CreatedAt))
	}
}
