package jobs

import (
	"testing"
	"time"
)

func TestAtBoundary(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Colombo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	midnight := time.Date(2026, 3, 1, 0, 0, 30, 0, loc)
	if !atBoundary(midnight) {
		t.Fatalf("expected 00:00:30 to be inside the boundary minute")
	}
	if atBoundary(midnight.Add(time.Minute)) {
		t.Fatalf("expected 00:01 to be outside the boundary")
	}
	if atBoundary(time.Date(2026, 3, 1, 12, 0, 0, 0, loc)) {
		t.Fatalf("expected noon to be outside the boundary")
	}

	// The boundary is evaluated in the configured zone, not UTC.
	utcEquivalent := midnight.UTC()
	if atBoundary(utcEquivalent) {
		t.Fatalf("expected the UTC rendering of local midnight to miss the boundary")
	}
}
