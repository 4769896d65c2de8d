package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ssonin/nvstech/internal/application"
)

// TransactionCoordinator manages transactions across multiple repositories
type TransactionCoordinator struct {
	pool *pgxpool.Pool
}

func NewTransactionCoordinator(db *DB) *TransactionCoordinator {
	return &TransactionCoordinator{
		pool: db.Pool,
	}
}

var _ application.UnitOfWork = (*TransactionCoordinator)(nil)

// WithTx executes a function within a database transaction.
// The function receives repository instances that use the transaction.
func (tc *TransactionCoordinator) WithTx(
	ctx context.Context,
	fn func(ops application.OperationRepository, docs application.DocumentRepository) error,
) error {
	tx, err := tc.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txOperationRepo := &OperationRepository{q: tx}
	txDocumentRepo := &DocumentRepository{q: tx}

	if err := fn(txOperationRepo, txDocumentRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
