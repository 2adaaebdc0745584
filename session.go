package pacer

import (
	"fmt"
	"strings"
	"sync"
)

// Session tracks cards surfaced during a single study session so later
// grades can reference them by a short handle.
type Session struct {
	mu      sync.Mutex
	cards   map[string]string // session ref (C1, C2) -> card ID
	reverse map[string]string // card ID -> session ref
	counter int
}

// NewSession creates a new session tracker.
func NewSession() *Session {
	return &Session{
		cards:   make(map[string]string),
		reverse: make(map[string]string),
	}
}

// Track adds a card to the session and returns its session reference.
func (s *Session) Track(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check if already tracked
	if ref, ok := s.reverse[id]; ok {
		return ref
	}

	s.counter++
	ref := fmt.Sprintf("C%d", s.counter)
	s.cards[ref] = id
	s.reverse[id] = ref
	return ref
}

// Resolve converts a session reference to a card ID.
func (s *Session) Resolve(ref string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.cards[ref]
	return id, ok
}

// ResolveByID gets the session reference for a card ID.
func (s *Session) ResolveByID(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.reverse[id]
	return ref, ok
}

// All returns all tracked session cards.
func (s *Session) All() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[string]string, len(s.cards))
	for ref, id := range s.cards {
		result[ref] = id
	}
	return result
}

// Count returns the number of cards tracked this session.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

// Clear resets the session tracking.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cards = make(map[string]string)
	s.reverse = make(map[string]string)
	s.counter = 0
}

// Match resolves a loose reference to a tracked card. It accepts
// session refs (C1, C2, ...) and card IDs directly, in either case.
func (s *Session) Match(ref string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.cards[strings.ToUpper(ref)]; ok {
		return id, true
	}
	if _, ok := s.reverse[ref]; ok {
		return ref, true
	}
	return "", false
}
