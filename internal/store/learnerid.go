// Package store provides multi-learner store management for Pacer.
package store

import (
	"errors"
	"os"
	"regexp"
)

// Learner ID validation errors.
var (
	// ErrInvalidLearnerID indicates the learner ID format is invalid.
	ErrInvalidLearnerID = errors.New("invalid learner ID: must be lowercase alphanumeric with hyphens, 1-64 characters")
)

// learnerIDRegex validates learner ID format.
// - Lowercase alphanumeric and hyphens (a-z, 0-9, -)
// - Length: 1-64 characters
// - No leading/trailing hyphens
var learnerIDRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?$`)

// ValidateLearnerID validates a learner ID format.
// Returns ErrInvalidLearnerID if the ID doesn't match the required pattern.
func ValidateLearnerID(id string) error {
	if id == "" || len(id) > 64 {
		return ErrInvalidLearnerID
	}
	if !learnerIDRegex.MatchString(id) {
		return ErrInvalidLearnerID
	}
	return nil
}

// ResolveLearner resolves the effective learner ID.
// Resolution order: explicit > PACER_LEARNER env > "default".
func ResolveLearner(explicit string) (string, error) {
	id := explicit
	if id == "" {
		id = os.Getenv("PACER_LEARNER")
	}
	if id == "" {
		id = "default"
	}
	if err := ValidateLearnerID(id); err != nil {
		return "", err
	}
	return id, nil
}
