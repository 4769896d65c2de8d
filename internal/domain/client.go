package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is a person the repository stores documents for.
type Client struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	FirstName   string
	LastName    string
	Email       string
	Description string
}

func NewClient(firstName, lastName, email, description string) *Client {
	return &Client{
		ID:          uuid.New(),
		CreatedAt:   time.Now().UTC(),
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		Description: description,
	}
}
