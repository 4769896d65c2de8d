package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/domain"
)

// In-memory fakes used by the service tests. Behavior mirrors the postgres
// repositories: unique-key arbitration on CreatePending and conditional
// state transitions on Commit/MarkFailed.

// MockOperationRepository
type MockOperationRepository struct {
	mu         sync.RWMutex
	operations map[string]*domain.Operation

	CreatePendingFn    func(ctx context.Context, op *domain.Operation) error
	FindByKeyFn        func(ctx context.Context, key string) (*domain.Operation, error)
	CommitFn           func(ctx context.Context, op *domain.Operation) error
	MarkFailedFn       func(ctx context.Context, key string, reason string) error
	FindStalePendingFn func(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Operation, error)
}

func NewMockOperationRepository() *MockOperationRepository {
	return &MockOperationRepository{
		operations: make(map[string]*domain.Operation),
	}
}

func (m *MockOperationRepository) CreatePending(ctx context.Context, op *domain.Operation) error {
	if m.CreatePendingFn != nil {
		return m.CreatePendingFn(ctx, op)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.operations[op.Key]; ok {
		return domain.NewDuplicateOperationError(op.Key)
	}
	copied := *op
	m.operations[op.Key] = &copied
	return nil
}

func (m *MockOperationRepository) FindByKey(ctx context.Context, key string) (*domain.Operation, error) {
	if m.FindByKeyFn != nil {
		return m.FindByKeyFn(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if op, ok := m.operations[key]; ok {
		copied := *op
		return &copied, nil
	}
	return nil, domain.NewOperationNotFoundError(key)
}

func (m *MockOperationRepository) Commit(ctx context.Context, op *domain.Operation) error {
	if m.CommitFn != nil {
		return m.CommitFn(ctx, op)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.operations[op.Key]
	if !ok {
		return domain.NewOperationNotFoundError(op.Key)
	}
	if stored.State != domain.StatePending {
		return domain.NewInvalidTransitionError(stored.State, domain.StateCommitted)
	}
	copied := *op
	copied.State = domain.StateCommitted
	m.operations[op.Key] = &copied
	return nil
}

func (m *MockOperationRepository) MarkFailed(ctx context.Context, key string, reason string) error {
	if m.MarkFailedFn != nil {
		return m.MarkFailedFn(ctx, key, reason)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.operations[key]
	if !ok {
		return domain.NewOperationNotFoundError(key)
	}
	if stored.State != domain.StatePending {
		return domain.NewInvalidTransitionError(stored.State, domain.StateFailed)
	}
	stored.State = domain.StateFailed
	stored.FailureReason = &reason
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MockOperationRepository) FindStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Operation, error) {
	if m.FindStalePendingFn != nil {
		return m.FindStalePendingFn(ctx, olderThan, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	cutoff := time.Now().UTC().Add(-olderThan)
	var stale []*domain.Operation
	for _, op := range m.operations {
		if op.State == domain.StatePending && op.CreatedAt.Before(cutoff) {
			copied := *op
			stale = append(stale, &copied)
			if len(stale) == limit {
				break
			}
		}
	}
	return stale, nil
}

// MockClientRepository
type MockClientRepository struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*domain.Client

	CreateFn   func(ctx context.Context, client *domain.Client) error
	FindByIDFn func(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	SearchFn   func(ctx context.Context, query string) ([]*domain.SearchResult, error)
}

func NewMockClientRepository() *MockClientRepository {
	return &MockClientRepository{
		clients: make(map[uuid.UUID]*domain.Client),
	}
}

func (m *MockClientRepository) Create(ctx context.Context, client *domain.Client) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, client)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.clients {
		if existing.Email == client.Email {
			return domain.NewDuplicateEmailError(client.Email)
		}
	}
	copied := *client
	m.clients[client.ID] = &copied
	return nil
}

func (m *MockClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if client, ok := m.clients[id]; ok {
		copied := *client
		return &copied, nil
	}
	return nil, domain.NewClientNotFoundError(id.String())
}

func (m *MockClientRepository) Search(ctx context.Context, query string) ([]*domain.SearchResult, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, query)
	}
	return nil, nil
}

// MockDocumentRepository
type MockDocumentRepository struct {
	mu        sync.RWMutex
	documents map[uuid.UUID]*domain.Document

	CreateFn   func(ctx context.Context, document *domain.Document) error
	FindByIDFn func(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	SearchFn   func(ctx context.Context, query string) ([]*domain.SearchResult, error)
}

func NewMockDocumentRepository() *MockDocumentRepository {
	return &MockDocumentRepository{
		documents: make(map[uuid.UUID]*domain.Document),
	}
}

func (m *MockDocumentRepository) Create(ctx context.Context, document *domain.Document) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, document)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *document
	m.documents[document.ID] = &copied
	return nil
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if document, ok := m.documents[id]; ok {
		copied := *document
		return &copied, nil
	}
	return nil, &domain.DomainError{
		Code:    domain.ErrCodeDocumentNotFound,
		Message: "no document found with id " + id.String(),
	}
}

func (m *MockDocumentRepository) Search(ctx context.Context, query string) ([]*domain.SearchResult, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, query)
	}
	return nil, nil
}

// MockEmbeddingClient counts calls so tests can assert the exactly-once
// guarantee.
type MockEmbeddingClient struct {
	mu    sync.Mutex
	calls int

	EmbedFn  func(ctx context.Context, req application.EmbedRequest) (*application.EmbedResponse, error)
	HealthFn func(ctx context.Context) error
}

func NewMockEmbeddingClient() *MockEmbeddingClient {
	return &MockEmbeddingClient{}
}

func (m *MockEmbeddingClient) Embed(ctx context.Context, req application.EmbedRequest) (*application.EmbedResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.EmbedFn != nil {
		return m.EmbedFn(ctx, req)
	}
	embeddings := make([][]float64, len(req.Texts))
	for i := range embeddings {
		embeddings[i] = []float64{0.1, 0.2, 0.3}
	}
	return &application.EmbedResponse{Embeddings: embeddings}, nil
}

func (m *MockEmbeddingClient) Health(ctx context.Context) error {
	if m.HealthFn != nil {
		return m.HealthFn(ctx)
	}
	return nil
}

func (m *MockEmbeddingClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockUnitOfWork runs the callback against the provided repositories. It
// does not provide real atomicity; tests inject WithTxFn to simulate
// transaction failures.
type MockUnitOfWork struct {
	Operations *MockOperationRepository
	Documents  *MockDocumentRepository

	WithTxFn func(ctx context.Context, fn func(ops application.OperationRepository, docs application.DocumentRepository) error) error
}

func NewMockUnitOfWork(operations *MockOperationRepository, documents *MockDocumentRepository) *MockUnitOfWork {
	return &MockUnitOfWork{
		Operations: operations,
		Documents:  documents,
	}
}

func (m *MockUnitOfWork) WithTx(ctx context.Context, fn func(ops application.OperationRepository, docs application.DocumentRepository) error) error {
	if m.WithTxFn != nil {
		return m.WithTxFn(ctx, fn)
	}
	return fn(m.Operations, m.Documents)
}
