package domain

import "fmt"

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeOperationNotFound  = "OPERATION_NOT_FOUND"
	ErrCodeClientNotFound     = "CLIENT_NOT_FOUND"
	ErrCodeDocumentNotFound   = "DOCUMENT_NOT_FOUND"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeDuplicateOperation = "DUPLICATE_OPERATION"
)

func NewInvalidTransitionError(from, to OperationState) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func NewOperationNotFoundError(key string) *DomainError {
	return &DomainError{
		Code:    ErrCodeOperationNotFound,
		Message: fmt.Sprintf("no operation found for key %s", key),
	}
}

func NewClientNotFoundError(id string) *DomainError {
	return &DomainError{
		Code:    ErrCodeClientNotFound,
		Message: fmt.Sprintf("no client found with id %s", id),
	}
}

func NewDuplicateEmailError(email string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateEmail,
		Message: fmt.Sprintf("email %s is already in use", email),
	}
}

// NewDuplicateOperationError signals that another request already claimed
// the idempotency key. The loser of a concurrent race observes this and
// must never issue an external call.
func NewDuplicateOperationError(key string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicateOperation,
		Message: fmt.Sprintf("operation with key %s already exists", key),
	}
}
