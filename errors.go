package pacer

import (
	"errors"
	"fmt"
)

// Common errors returned by the Pacer client.
var (
	// ErrRecordNotFound is returned when a learning record does not exist.
	ErrRecordNotFound = errors.New("learning record not found")

	// ErrInvalidAction is returned when an event carries an unknown action.
	ErrInvalidAction = errors.New("invalid event action")

	// ErrInvalidResult is returned when an event carries an unknown result.
	ErrInvalidResult = errors.New("invalid event result")

	// ErrInvalidConfidence is returned when confidence is out of range [0, 1].
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")

	// ErrEmptyCardID is returned when a card ID is empty.
	ErrEmptyCardID = errors.New("card id cannot be empty")

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrNoReasoner is returned when an adaptive operation is attempted
	// without a configured reasoning provider.
	ErrNoReasoner = errors.New("no reasoning provider configured")

	// ErrUpdateInFlight is returned when a profile update is already
	// running for the learner.
	ErrUpdateInFlight = errors.New("profile update already in flight")

	// ErrEmptyResponse is returned when the reasoning provider returns
	// no content.
	ErrEmptyResponse = errors.New("empty provider response")
)

// ValidationError is returned when configuration validation fails.
// Extractable via errors.As().
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ProviderError is returned internally when a reasoning provider call
// fails with details. It never crosses the Plan/RecordEvent boundary;
// those paths degrade to the fallback instead. Extractable via
// errors.As(). Supports Unwrap().
type ProviderError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("reasoner: %s failed (status %d): %v", e.Operation, e.StatusCode, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
