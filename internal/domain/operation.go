// Package domain defines the entities stored by the repository service.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OperationState represents where an ingest operation is in its lifecycle.
type OperationState string

const (
	StatePending   OperationState = "PENDING"
	StateCommitted OperationState = "COMMITTED"
	StateFailed    OperationState = "FAILED"
)

// Operation is the durable record of one document ingestion, keyed by the
// client-supplied idempotency key. At most one operation exists per key.
type Operation struct {
	Key            string
	ClientID       uuid.UUID
	State          OperationState
	Payload        json.RawMessage
	ExternalResult json.RawMessage
	DocumentID     *uuid.UUID
	FailureReason  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPendingOperation builds the record written before the embedding call.
func NewPendingOperation(key string, clientID uuid.UUID, payload json.RawMessage) *Operation {
	now := time.Now().UTC()
	return &Operation{
		Key:       key,
		ClientID:  clientID,
		State:     StatePending,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanTransitionTo validates a state change. Committed and Failed are
// terminal: a committed operation never regresses, and a failed one is
// retained for inspection rather than reworked in place.
//
// Valid transitions are:
//   - Pending → Committed, Failed
func (o *Operation) CanTransitionTo(target OperationState) error {
	switch o.State {
	case StatePending:
		if target == StateCommitted || target == StateFailed {
			return nil
		}
	case StateCommitted, StateFailed:
		return NewInvalidTransitionError(o.State, target)
	}
	return NewInvalidTransitionError(o.State, target)
}

func (o *Operation) IsTerminal() bool {
	return o.State == StateCommitted || o.State == StateFailed
}

// Commit records the external result snapshot and the document the
// operation produced.
func (o *Operation) Commit(documentID uuid.UUID, externalResult json.RawMessage) error {
	if err := o.CanTransitionTo(StateCommitted); err != nil {
		return err
	}
	o.State = StateCommitted
	o.DocumentID = &documentID
	o.ExternalResult = externalResult
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail records a terminal failure without deleting the record, so that a
// later resubmission with the same key can be reconciled against it.
func (o *Operation) Fail(reason string) error {
	if err := o.CanTransitionTo(StateFailed); err != nil {
		return err
	}
	o.State = StateFailed
	o.FailureReason = &reason
	o.UpdatedAt = time.Now().UTC()
	return nil
}
