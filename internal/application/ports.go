package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ssonin/nvstech/internal/domain"
)

// EmbedRequest carries the texts to embed. The same request value is reused
// unchanged across retry attempts.
type EmbedRequest struct {
	Texts []string `json:"texts"`
}

type EmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// EmbeddingClient is the port for the external embedding service.
type EmbeddingClient interface {
	Embed(ctx context.Context, req EmbedRequest) (*EmbedResponse, error)
	Health(ctx context.Context) error
}

// OperationRepository is the port for the durable ingest-operation records.
type OperationRepository interface {
	// CreatePending inserts a new PENDING record. When another request has
	// already claimed the key it returns a duplicate-operation error; the
	// database's unique constraint arbitrates concurrent submissions.
	CreatePending(ctx context.Context, op *domain.Operation) error
	FindByKey(ctx context.Context, key string) (*domain.Operation, error)
	// Commit moves a record from PENDING to COMMITTED. Committing a record
	// that is not PENDING is rejected.
	Commit(ctx context.Context, op *domain.Operation) error
	MarkFailed(ctx context.Context, key string, reason string) error
	FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Operation, error)
}

// ClientRepository is the port for client persistence.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	Search(ctx context.Context, query string) ([]*domain.SearchResult, error)
}

// DocumentRepository is the port for document persistence.
type DocumentRepository interface {
	Create(ctx context.Context, document *domain.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	Search(ctx context.Context, query string) ([]*domain.SearchResult, error)
}

// UnitOfWork executes fn with repositories bound to a single database
// transaction, so the document insert and the operation commit land
// atomically.
type UnitOfWork interface {
	WithTx(ctx context.Context, fn func(ops OperationRepository, docs DocumentRepository) error) error
}
