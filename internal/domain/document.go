package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is a piece of text belonging to a client, stored together with
// the embedding vector computed for its content.
type Document struct {
	ID        uuid.UUID
	CreatedAt time.Time
	ClientID  uuid.UUID
	Title     string
	Content   string
	Embedding []float64
}

func NewDocument(clientID uuid.UUID, title, content string, embedding []float64) *Document {
	return &Document{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		ClientID:  clientID,
		Title:     title,
		Content:   content,
		Embedding: embedding,
	}
}

// SearchResult is a client or document hit returned by full-text search,
// annotated with its source and rank so mixed results can be merged.
type SearchResult struct {
	Type string
	Rank float64
	Data map[string]any
}
