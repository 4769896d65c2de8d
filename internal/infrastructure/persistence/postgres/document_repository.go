package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/domain"
)

const documentSearchVector = `to_tsvector('english',
	coalesce(title, '') || ' ' || coalesce(content, ''))`

type DocumentRepository struct {
	q Executor
}

func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{q: db.Pool}
}

var _ application.DocumentRepository = (*DocumentRepository)(nil)

func (r *DocumentRepository) Create(ctx context.Context, document *domain.Document) error {
	query := `
		INSERT INTO documents (id, created_at, client_id, title, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	embedding, err := json.Marshal(document.Embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	_, err = r.q.Exec(ctx, query,
		document.ID, document.CreatedAt, document.ClientID,
		document.Title, document.Content, embedding)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	query := `
		SELECT id, created_at, client_id, title, content, embedding
		FROM documents
		WHERE id = $1
	`

	var document domain.Document
	var embedding []byte
	err := r.q.QueryRow(ctx, query, id).Scan(
		&document.ID,
		&document.CreatedAt,
		&document.ClientID,
		&document.Title,
		&document.Content,
		&embedding,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.DomainError{
				Code:    domain.ErrCodeDocumentNotFound,
				Message: fmt.Sprintf("no document found with id %s", id),
			}
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	if embedding != nil {
		if err := json.Unmarshal(embedding, &document.Embedding); err != nil {
			return nil, fmt.Errorf("failed to decode embedding: %w", err)
		}
	}

	return &document, nil
}

// Search ranks documents against the query with full-text search.
func (r *DocumentRepository) Search(ctx context.Context, query string) ([]*domain.SearchResult, error) {
	sql := fmt.Sprintf(`
		SELECT id, created_at, client_id, title, content,
		       ts_rank(%s, plainto_tsquery('english', $1)) AS rank
		FROM documents
		WHERE %s @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC
	`, documentSearchVector, documentSearchVector)

	rows, err := r.q.Query(ctx, sql, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var results []*domain.SearchResult
	for rows.Next() {
		var document domain.Document
		var rank float64
		err := rows.Scan(
			&document.ID,
			&document.CreatedAt,
			&document.ClientID,
			&document.Title,
			&document.Content,
			&rank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document search result: %w", err)
		}
		results = append(results, &domain.SearchResult{
			Type: "document",
			Rank: rank,
			Data: documentToMap(&document),
		})
	}

	return results, rows.Err()
}

func documentToMap(d *domain.Document) map[string]any {
	return map[string]any{
		"id":         d.ID.String(),
		"created_at": d.CreatedAt,
		"client_id":  d.ClientID.String(),
		"title":      d.Title,
		"content":    d.Content,
	}
}
