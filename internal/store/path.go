package store

import (
	"os"
	"path/filepath"
)

// DefaultStoreRoot returns the root directory for all learner stores.
// Defaults to ~/.pacer/learners, falls back to ./.pacer/learners if the
// home directory is unavailable.
func DefaultStoreRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".pacer", "learners")
	}
	return filepath.Join(home, ".pacer", "learners")
}

// LearnerDBPath returns the full path to a learner's database file.
// Example: LearnerDBPath("alice") -> ~/.pacer/learners/alice/pacer.db
func LearnerDBPath(learnerID string) string {
	return filepath.Join(DefaultStoreRoot(), learnerID, "pacer.db")
}
