package application

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ssonin/nvstech/internal/schema"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Violations []schema.Violation
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodeRejectedByRemote = "REJECTED_BY_REMOTE"
	ErrCodeUnavailable      = "SERVICE_UNAVAILABLE"
	ErrCodeStorage          = "STORAGE_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

func NewInvalidInputError(ve *schema.ValidationError) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidInput,
		Message:    ve.Error(),
		HTTPStatus: http.StatusBadRequest,
		Violations: ve.Violations,
		Err:        ve,
	}
}

// NewDuplicateRequestError reports that the idempotency key is already
// claimed by an operation that has not committed. Not retryable by the
// client until that operation settles.
func NewDuplicateRequestError(key string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeDuplicateRequest,
		Message:    fmt.Sprintf("a request with idempotency key %q is already in progress", key),
		HTTPStatus: http.StatusConflict,
	}
}

func NewRejectedByRemoteError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeRejectedByRemote,
		Message:    "the embedding service rejected the request",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

func NewUnavailableError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnavailable,
		Message:    "the embedding service is unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewStorageError surfaces a persistence failure verbatim. It is never
// swallowed: after a successful external call it may indicate a committed
// but unrecorded side effect.
func NewStorageError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeStorage,
		Message:    "a storage operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewNotFoundError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    "resource not found",
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}

func NewConflictError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeConflict,
		Message:    "conflict with existing resource",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// EXTERNAL CALL ERRORS

// FailureKind classifies an embedding-service failure for retry decisions.
type FailureKind string

const (
	// KindTransient covers connection failures, timeouts and 5xx-style
	// responses. A retry may succeed.
	KindTransient FailureKind = "TRANSIENT"
	// KindPermanent covers well-formed rejections from the remote service.
	// A retry cannot succeed.
	KindPermanent FailureKind = "PERMANENT"
)

type EmbeddingError struct {
	Kind       FailureKind
	StatusCode int
	Message    string
	Err        error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding error [%s]: %s (status: %d)", e.Kind, e.Message, e.StatusCode)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

func (e *EmbeddingError) IsRetryable() bool {
	return e.Kind == KindTransient
}

func IsEmbeddingError(err error) (*EmbeddingError, bool) {
	var embErr *EmbeddingError
	ok := errors.As(err, &embErr)
	return embErr, ok
}
