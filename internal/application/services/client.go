package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/domain"
	"github.com/ssonin/nvstech/internal/schema"
)

// ClientService handles client registration and lookup. No external call is
// involved, so there is no orchestration beyond validation and persistence.
type ClientService struct {
	validator *schema.Validator
	clients   application.ClientRepository
	logger    *slog.Logger
}

func NewClientService(validator *schema.Validator, clients application.ClientRepository, logger *slog.Logger) *ClientService {
	return &ClientService{
		validator: validator,
		clients:   clients,
		logger:    logger,
	}
}

func (s *ClientService) Create(ctx context.Context, raw []byte) (*domain.Client, error) {
	payload, err := s.validator.ValidateClient(raw)
	if err != nil {
		if ve, ok := schema.IsValidationError(err); ok {
			return nil, application.NewInvalidInputError(ve)
		}
		return nil, application.NewInternalError(err)
	}

	description, _ := payload["description"].(string)
	client := domain.NewClient(
		payload["first_name"].(string),
		payload["last_name"].(string),
		payload["email"].(string),
		description,
	)

	if err := s.clients.Create(ctx, client); err != nil {
		var domErr *domain.DomainError
		if errors.As(err, &domErr) && domErr.Code == domain.ErrCodeDuplicateEmail {
			return nil, application.NewConflictError(err)
		}
		return nil, application.NewStorageError(err)
	}

	return client, nil
}

func (s *ClientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	clientID, err := uuid.Parse(id)
	if err != nil {
		return nil, application.NewInvalidInputError(&schema.ValidationError{
			Violations: []schema.Violation{{Field: "clientId", Constraint: "must be a valid UUID"}},
		})
	}

	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		var domErr *domain.DomainError
		if errors.As(err, &domErr) && domErr.Code == domain.ErrCodeClientNotFound {
			return nil, application.NewNotFoundError(err)
		}
		return nil, application.NewStorageError(err)
	}

	return client, nil
}
