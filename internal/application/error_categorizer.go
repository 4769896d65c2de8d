package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/ssonin/nvstech/internal/domain"
	"github.com/ssonin/nvstech/internal/schema"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	// Context errors are network/timeout issues
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if _, ok := schema.IsValidationError(err); ok {
		return CategoryClientError
	}

	var domErr *domain.DomainError
	if errors.As(err, &domErr) {
		switch domErr.Code {
		case domain.ErrCodeInvalidTransition:
			return CategoryBusinessRule
		case domain.ErrCodeDuplicateOperation, domain.ErrCodeDuplicateEmail:
			return CategoryBusinessRule
		case domain.ErrCodeClientNotFound, domain.ErrCodeDocumentNotFound, domain.ErrCodeOperationNotFound:
			return CategoryClientError
		}
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeInvalidInput, ErrCodeNotFound:
			return CategoryClientError
		case ErrCodeDuplicateRequest, ErrCodeConflict:
			return CategoryBusinessRule
		case ErrCodeRejectedByRemote:
			return CategoryPermanent
		case ErrCodeUnavailable:
			return CategoryTransient
		case ErrCodeStorage, ErrCodeInternal:
			return CategoryInfrastructure
		}
	}

	if embErr, ok := IsEmbeddingError(err); ok {
		if embErr.Kind == KindPermanent {
			return CategoryPermanent
		}
		return CategoryTransient
	}

	// Default: transient (safe fallback)
	return CategoryTransient
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	if _, ok := schema.IsValidationError(err); ok {
		return http.StatusBadRequest
	}

	var domErr *domain.DomainError
	if errors.As(err, &domErr) {
		switch domErr.Code {
		case domain.ErrCodeClientNotFound, domain.ErrCodeDocumentNotFound, domain.ErrCodeOperationNotFound:
			return http.StatusNotFound
		case domain.ErrCodeDuplicateEmail, domain.ErrCodeDuplicateOperation, domain.ErrCodeInvalidTransition:
			return http.StatusConflict
		}
	}

	if embErr, ok := IsEmbeddingError(err); ok {
		if embErr.Kind == KindPermanent {
			return http.StatusUnprocessableEntity
		}
		return http.StatusServiceUnavailable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}

	return http.StatusInternalServerError
}

// ToErrorCode maps an error to the public code in the response body.
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	if _, ok := schema.IsValidationError(err); ok {
		return ErrCodeInvalidInput
	}

	var domErr *domain.DomainError
	if errors.As(err, &domErr) {
		return domErr.Code
	}

	return ErrCodeInternal
}
