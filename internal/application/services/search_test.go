package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ssonin/nvstech/internal/application/services"
	"github.com/ssonin/nvstech/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchService_MergesAndRanks(t *testing.T) {
	clients := services.NewMockClientRepository()
	documents := services.NewMockDocumentRepository()

	clients.SearchFn = func(ctx context.Context, query string) ([]*domain.SearchResult, error) {
		return []*domain.SearchResult{
			{Type: "client", Rank: 0.3, Data: map[string]any{"email": "ada@example.com"}},
		}, nil
	}
	documents.SearchFn = func(ctx context.Context, query string) ([]*domain.SearchResult, error) {
		return []*domain.SearchResult{
			{Type: "document", Rank: 0.9, Data: map[string]any{"title": "Analytical Engine"}},
			{Type: "document", Rank: 0.1, Data: map[string]any{"title": "Misc"}},
		}, nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := services.NewSearchService(clients, documents, logger)

	results, err := service.Search(context.Background(), "Engine")

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "document", results[0].Type)
	assert.Equal(t, 0.9, results[0].Rank)
	assert.Equal(t, "client", results[1].Type)
	assert.Equal(t, 0.1, results[2].Rank)
}

func TestSearchService_LowercasesQuery(t *testing.T) {
	clients := services.NewMockClientRepository()
	documents := services.NewMockDocumentRepository()

	var gotQuery string
	clients.SearchFn = func(ctx context.Context, query string) ([]*domain.SearchResult, error) {
		gotQuery = query
		return nil, nil
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := services.NewSearchService(clients, documents, logger)

	_, err := service.Search(context.Background(), "  Analytical ENGINE ")

	require.NoError(t, err)
	assert.Equal(t, "analytical engine", gotQuery)
}
