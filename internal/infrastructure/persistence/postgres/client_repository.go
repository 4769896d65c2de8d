package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/domain"
)

const clientSearchVector = `to_tsvector('english',
	coalesce(first_name, '') || ' ' ||
	coalesce(last_name, '') || ' ' ||
	coalesce(email, '') || ' ' ||
	coalesce(description, ''))`

type ClientRepository struct {
	q Executor
}

func NewClientRepository(db *DB) *ClientRepository {
	return &ClientRepository{q: db.Pool}
}

var _ application.ClientRepository = (*ClientRepository)(nil)

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	query := `
		INSERT INTO clients (id, created_at, first_name, last_name, email, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.q.Exec(ctx, query,
		client.ID, client.CreatedAt, client.FirstName, client.LastName,
		client.Email, nullable(client.Description))
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.NewDuplicateEmailError(client.Email)
		}
		return fmt.Errorf("failed to create client: %w", err)
	}

	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	query := `
		SELECT id, created_at, first_name, last_name, email, description
		FROM clients
		WHERE id = $1
	`

	var client domain.Client
	var description *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&client.ID,
		&client.CreatedAt,
		&client.FirstName,
		&client.LastName,
		&client.Email,
		&description,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewClientNotFoundError(id.String())
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}

	if description != nil {
		client.Description = *description
	}

	return &client, nil
}

// Search ranks clients against the query with full-text search.
func (r *ClientRepository) Search(ctx context.Context, query string) ([]*domain.SearchResult, error) {
	sql := fmt.Sprintf(`
		SELECT id, created_at, first_name, last_name, email, description,
		       ts_rank(%s, plainto_tsquery('english', $1)) AS rank
		FROM clients
		WHERE %s @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC
	`, clientSearchVector, clientSearchVector)

	rows, err := r.q.Query(ctx, sql, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}
	defer rows.Close()

	var results []*domain.SearchResult
	for rows.Next() {
		var client domain.Client
		var description *string
		var rank float64
		err := rows.Scan(
			&client.ID,
			&client.CreatedAt,
			&client.FirstName,
			&client.LastName,
			&client.Email,
			&description,
			&rank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client search result: %w", err)
		}
		if description != nil {
			client.Description = *description
		}
		results = append(results, &domain.SearchResult{
			Type: "client",
			Rank: rank,
			Data: clientToMap(&client),
		})
	}

	return results, rows.Err()
}

func clientToMap(c *domain.Client) map[string]any {
	return map[string]any{
		"id":          c.ID.String(),
		"created_at":  c.CreatedAt,
		"first_name":  c.FirstName,
		"last_name":   c.LastName,
		"email":       c.Email,
		"description": c.Description,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
