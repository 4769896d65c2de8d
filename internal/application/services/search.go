package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/domain"
)

// SearchService merges full-text hits across clients and documents into a
// single list ordered by rank.
type SearchService struct {
	clients   application.ClientRepository
	documents application.DocumentRepository
	logger    *slog.Logger
}

func NewSearchService(clients application.ClientRepository, documents application.DocumentRepository, logger *slog.Logger) *SearchService {
	return &SearchService{
		clients:   clients,
		documents: documents,
		logger:    logger,
	}
}

func (s *SearchService) Search(ctx context.Context, query string) ([]*domain.SearchResult, error) {
	query = strings.ToLower(strings.TrimSpace(query))

	clientHits, err := s.clients.Search(ctx, query)
	if err != nil {
		return nil, application.NewStorageError(err)
	}

	documentHits, err := s.documents.Search(ctx, query)
	if err != nil {
		return nil, application.NewStorageError(err)
	}

	results := make([]*domain.SearchResult, 0, len(clientHits)+len(documentHits))
	results = append(results, clientHits...)
	results = append(results, documentHits...)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Rank > results[j].Rank
	})

	return results, nil
}
