package pacer_test

import (
	"testing"

	"github.com/hyperengineering/pacer"
)

func TestSession_TrackAndResolve(t *testing.T) {
	s := pacer.NewSession()

	ref1 := s.Track("apple")
	ref2 := s.Track("banana")

	if ref1 != "C1" || ref2 != "C2" {
		t.Errorf("refs = %s, %s, want C1, C2", ref1, ref2)
	}

	id, ok := s.Resolve("C1")
	if !ok || id != "apple" {
		t.Errorf("Resolve(C1) = %q, %v, want apple, true", id, ok)
	}

	if _, ok := s.Resolve("C99"); ok {
		t.Error("Resolve(C99) should fail")
	}
}

func TestSession_TrackIdempotent(t *testing.T) {
	s := pacer.NewSession()

	first := s.Track("apple")
	second := s.Track("apple")
	if first != second {
		t.Errorf("re-tracking returned %s, want %s", second, first)
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
}

func TestSession_Match(t *testing.T) {
	s := pacer.NewSession()
	s.Track("apple")

	tests := []struct {
		ref    string
		wantID string
		wantOK bool
	}{
		{"C1", "apple", true},
		{"c1", "apple", true}, // case-insensitive ref
		{"apple", "apple", true},
		{"unknown", "", false},
	}

	for _, tt := range tests {
		id, ok := s.Match(tt.ref)
		if ok != tt.wantOK || id != tt.wantID {
			t.Errorf("Match(%q) = %q, %v, want %q, %v", tt.ref, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestSession_Clear(t *testing.T) {
	s := pacer.NewSession()
	s.Track("apple")
	s.Clear()

	if s.Count() != 0 {
		t.Errorf("Count() after Clear = %d, want 0", s.Count())
	}
	if ref := s.Track("banana"); ref != "C1" {
		t.Errorf("ref after Clear = %s, want C1 (counter reset)", ref)
	}
}

func TestSession_All(t *testing.T) {
	s := pacer.NewSession()
	s.Track("apple")
	s.Track("banana")

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(all))
	}
	if all["C1"] != "apple" || all["C2"] != "banana" {
		t.Errorf("All() = %v", all)
	}
}
