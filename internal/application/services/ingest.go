// Package services holds the orchestration layer: each service sequences
// validation, external calls and persistence into one consistent operation.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/domain"
	"github.com/ssonin/nvstech/internal/schema"
)

// IngestOutcome discriminates how a document submission settled.
type IngestOutcome string

const (
	// OutcomeAccepted means this invocation performed the embedding call
	// and committed a new record.
	OutcomeAccepted IngestOutcome = "ACCEPTED"
	// OutcomeReplayed means the idempotency key was already committed; the
	// stored record is returned and no external call is made.
	OutcomeReplayed IngestOutcome = "REPLAYED"
)

type IngestResult struct {
	Outcome   IngestOutcome
	Operation *domain.Operation
	Document  *domain.Document
}

// IngestService orchestrates document ingestion:
// validate → claim idempotency key → embedding call → transactional commit.
type IngestService struct {
	validator  *schema.Validator
	operations application.OperationRepository
	clients    application.ClientRepository
	documents  application.DocumentRepository
	embedder   application.EmbeddingClient
	uow        application.UnitOfWork
	logger     *slog.Logger
}

func NewIngestService(
	validator *schema.Validator,
	operations application.OperationRepository,
	clients application.ClientRepository,
	documents application.DocumentRepository,
	embedder application.EmbeddingClient,
	uow application.UnitOfWork,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		validator:  validator,
		operations: operations,
		clients:    clients,
		documents:  documents,
		embedder:   embedder,
		uow:        uow,
		logger:     logger,
	}
}

// Ingest runs one logical operation end to end. Exactly one embedding call
// is made per idempotency key: replays return the committed record, and the
// loser of a concurrent race observes a conflict before any external call.
func (s *IngestService) Ingest(ctx context.Context, key string, clientID uuid.UUID, raw []byte) (*IngestResult, error) {
	payload, err := s.validator.ValidateDocument(raw)
	if err != nil {
		if ve, ok := schema.IsValidationError(err); ok {
			return nil, application.NewInvalidInputError(ve)
		}
		return nil, application.NewInternalError(err)
	}

	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		var domErr *domain.DomainError
		if errors.As(err, &domErr) && domErr.Code == domain.ErrCodeClientNotFound {
			return nil, application.NewNotFoundError(err)
		}
		return nil, application.NewStorageError(err)
	}

	op := domain.NewPendingOperation(key, clientID, raw)
	if err := s.operations.CreatePending(ctx, op); err != nil {
		var domErr *domain.DomainError
		if errors.As(err, &domErr) && domErr.Code == domain.ErrCodeDuplicateOperation {
			return s.replay(ctx, key)
		}
		return nil, application.NewStorageError(err)
	}

	// From here on the operation must settle even if the client goes away:
	// an interrupted embedding call could otherwise leave a side effect
	// unrecorded.
	opCtx := context.WithoutCancel(ctx)

	title := payload["title"].(string)
	content := payload["content"].(string)

	embedResp, err := s.embedder.Embed(opCtx, application.EmbedRequest{Texts: []string{content}})
	if err != nil {
		return nil, s.handleEmbeddingFailure(opCtx, key, err)
	}

	document := domain.NewDocument(clientID, title, content, embedResp.Embeddings[0])

	snapshot, err := json.Marshal(embedResp)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if err := op.Commit(document.ID, snapshot); err != nil {
		return nil, application.NewInternalError(err)
	}

	err = s.uow.WithTx(opCtx, func(ops application.OperationRepository, docs application.DocumentRepository) error {
		if err := docs.Create(opCtx, document); err != nil {
			return err
		}
		return ops.Commit(opCtx, op)
	})
	if err != nil {
		// The embedding call succeeded but the local write did not. Surface
		// the inconsistency verbatim; retrying here could double-invoke the
		// remote side.
		s.logger.Error("commit failed after successful embedding call",
			"key", key, "error", err)
		return nil, application.NewStorageError(err)
	}

	return &IngestResult{
		Outcome:   OutcomeAccepted,
		Operation: op,
		Document:  document,
	}, nil
}

// replay resolves a duplicate key: a committed operation yields its stored
// record, anything else is a conflict the caller must not retry blindly.
func (s *IngestService) replay(ctx context.Context, key string) (*IngestResult, error) {
	existing, err := s.operations.FindByKey(ctx, key)
	if err != nil {
		return nil, application.NewStorageError(err)
	}

	if existing.State == domain.StateCommitted && existing.DocumentID != nil {
		document, err := s.documents.FindByID(ctx, *existing.DocumentID)
		if err != nil {
			return nil, application.NewStorageError(err)
		}
		return &IngestResult{
			Outcome:   OutcomeReplayed,
			Operation: existing,
			Document:  document,
		}, nil
	}

	return nil, application.NewDuplicateRequestError(key)
}

func (s *IngestService) handleEmbeddingFailure(ctx context.Context, key string, embedErr error) error {
	reason := embedErr.Error()
	if err := s.operations.MarkFailed(ctx, key, reason); err != nil {
		// The primary failure still wins; losing the failure marker is
		// logged, not masked.
		s.logger.Error("failed to mark operation failed", "key", key, "error", err)
	}

	if embErr, ok := application.IsEmbeddingError(embedErr); ok && embErr.Kind == application.KindPermanent {
		return application.NewRejectedByRemoteError(embedErr)
	}
	return application.NewUnavailableError(embedErr)
}
