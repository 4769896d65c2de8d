package testhelpers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ssonin/nvstech/internal/domain"
	"github.com/ssonin/nvstech/internal/infrastructure/persistence/postgres"
	"github.com/stretchr/testify/require"
)

// SeedClient inserts a client with a unique email and returns it.
func SeedClient(t *testing.T, ctx context.Context, repo *postgres.ClientRepository) *domain.Client {
	client := domain.NewClient("Ada", "Lovelace", "ada-"+uuid.New().String()+"@example.com", "")
	require.NoError(t, repo.Create(ctx, client))
	return client
}

// SeedDocument inserts a document owned by the given client.
func SeedDocument(t *testing.T, ctx context.Context, repo *postgres.DocumentRepository, clientID uuid.UUID) *domain.Document {
	document := domain.NewDocument(clientID, "Analytical Engine", "notes on the analytical engine", []float64{0.1, 0.2})
	require.NoError(t, repo.Create(ctx, document))
	return document
}

// SeedPendingOperation claims an idempotency key for the given client.
func SeedPendingOperation(t *testing.T, ctx context.Context, repo *postgres.OperationRepository, clientID uuid.UUID) *domain.Operation {
	op := domain.NewPendingOperation("op-"+uuid.New().String(), clientID, []byte(`{"title":"t","content":"c"}`))
	require.NoError(t, repo.CreatePending(ctx, op))
	return op
}
