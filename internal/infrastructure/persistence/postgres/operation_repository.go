package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/domain"
)

type OperationRepository struct {
	q Executor
}

func NewOperationRepository(db *DB) *OperationRepository {
	return &OperationRepository{q: db.Pool}
}

var _ application.OperationRepository = (*OperationRepository)(nil)

// CreatePending inserts the PENDING record. The primary key on the
// idempotency key arbitrates concurrent submissions: exactly one insert
// succeeds, every other one observes a duplicate-operation error.
func (r *OperationRepository) CreatePending(ctx context.Context, op *domain.Operation) error {
	query := `
		INSERT INTO ingest_operations (key, client_id, state, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.Exec(ctx, query,
		op.Key, op.ClientID, op.State, op.Payload, op.CreatedAt, op.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.NewDuplicateOperationError(op.Key)
		}
		return fmt.Errorf("failed to create pending operation: %w", err)
	}

	return nil
}

func (r *OperationRepository) FindByKey(ctx context.Context, key string) (*domain.Operation, error) {
	query := `
		SELECT key, client_id, state, payload, external_result, document_id, failure_reason, created_at, updated_at
		FROM ingest_operations
		WHERE key = $1
	`

	var op domain.Operation
	err := r.q.QueryRow(ctx, query, key).Scan(
		&op.Key,
		&op.ClientID,
		&op.State,
		&op.Payload,
		&op.ExternalResult,
		&op.DocumentID,
		&op.FailureReason,
		&op.CreatedAt,
		&op.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewOperationNotFoundError(key)
		}
		return nil, fmt.Errorf("failed to find operation: %w", err)
	}

	return &op, nil
}

// Commit is a conditional update guarded on the PENDING state, so a record
// can be committed at most once and a committed record never regresses.
func (r *OperationRepository) Commit(ctx context.Context, op *domain.Operation) error {
	query := `
		UPDATE ingest_operations
		SET state = $2, external_result = $3, document_id = $4, updated_at = $5
		WHERE key = $1 AND state = $6
	`

	tag, err := r.q.Exec(ctx, query,
		op.Key, domain.StateCommitted, op.ExternalResult, op.DocumentID,
		time.Now().UTC(), domain.StatePending)
	if err != nil {
		return fmt.Errorf("failed to commit operation: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return r.transitionConflict(ctx, op.Key, domain.StateCommitted)
	}

	return nil
}

func (r *OperationRepository) MarkFailed(ctx context.Context, key string, reason string) error {
	query := `
		UPDATE ingest_operations
		SET state = $2, failure_reason = $3, updated_at = $4
		WHERE key = $1 AND state = $5
	`

	tag, err := r.q.Exec(ctx, query,
		key, domain.StateFailed, reason, time.Now().UTC(), domain.StatePending)
	if err != nil {
		return fmt.Errorf("failed to mark operation failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return r.transitionConflict(ctx, key, domain.StateFailed)
	}

	return nil
}

// FindStalePending returns PENDING records older than the given age, for
// the reconciler to settle.
func (r *OperationRepository) FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Operation, error) {
	query := `
		SELECT key, client_id, state, payload, external_result, document_id, failure_reason, created_at, updated_at
		FROM ingest_operations
		WHERE state = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`

	cutoff := time.Now().UTC().Add(-olderThan)
	rows, err := r.q.Query(ctx, query, domain.StatePending, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale pending operations: %w", err)
	}
	defer rows.Close()

	var ops []*domain.Operation
	for rows.Next() {
		var op domain.Operation
		err := rows.Scan(
			&op.Key,
			&op.ClientID,
			&op.State,
			&op.Payload,
			&op.ExternalResult,
			&op.DocumentID,
			&op.FailureReason,
			&op.CreatedAt,
			&op.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, &op)
	}

	return ops, rows.Err()
}

func (r *OperationRepository) transitionConflict(ctx context.Context, key string, target domain.OperationState) error {
	current, err := r.FindByKey(ctx, key)
	if err != nil {
		return err
	}
	return domain.NewInvalidTransitionError(current.State, target)
}
