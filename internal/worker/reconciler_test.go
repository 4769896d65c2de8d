package worker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ssonin/nvstech/internal/application/services"
	"github.com/ssonin/nvstech/internal/config"
	"github.com/ssonin/nvstech/internal/domain"
	"github.com/ssonin/nvstech/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconciler(operations *services.MockOperationRepository) *worker.Reconciler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.WorkerConfig{
		Interval:   time.Minute,
		BatchSize:  10,
		PendingTTL: 5 * time.Minute,
	}
	return worker.NewReconciler(operations, cfg, logger)
}

func TestReconciler_FailsStalePending(t *testing.T) {
	operations := services.NewMockOperationRepository()

	stale := domain.NewPendingOperation("stale-key", uuid.New(), []byte(`{}`))
	stale.CreatedAt = time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, operations.CreatePending(context.Background(), stale))

	fresh := domain.NewPendingOperation("fresh-key", uuid.New(), []byte(`{}`))
	require.NoError(t, operations.CreatePending(context.Background(), fresh))

	newReconciler(operations).RunOnce(context.Background())

	got, err := operations.FindByKey(context.Background(), "stale-key")
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, got.State)
	require.NotNil(t, got.FailureReason)
	assert.Contains(t, *got.FailureReason, "pending timeout")

	got, err = operations.FindByKey(context.Background(), "fresh-key")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePending, got.State)
}

func TestReconciler_SkipsSettledOperations(t *testing.T) {
	operations := services.NewMockOperationRepository()

	op := domain.NewPendingOperation("settled-key", uuid.New(), []byte(`{}`))
	op.CreatedAt = time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, operations.CreatePending(context.Background(), op))
	require.NoError(t, op.Commit(uuid.New(), []byte(`{}`)))
	require.NoError(t, operations.Commit(context.Background(), op))

	newReconciler(operations).RunOnce(context.Background())

	got, err := operations.FindByKey(context.Background(), "settled-key")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCommitted, got.State)
}

func TestReconciler_ToleratesLosingTheRace(t *testing.T) {
	operations := services.NewMockOperationRepository()

	op := domain.NewPendingOperation("racy-key", uuid.New(), []byte(`{}`))
	op.CreatedAt = time.Now().UTC().Add(-10 * time.Minute)
	require.NoError(t, operations.CreatePending(context.Background(), op))

	operations.MarkFailedFn = func(ctx context.Context, key string, reason string) error {
		return domain.NewInvalidTransitionError(domain.StateCommitted, domain.StateFailed)
	}

	// Must not panic or loop; the conditional update losing is expected.
	newReconciler(operations).RunOnce(context.Background())
}
