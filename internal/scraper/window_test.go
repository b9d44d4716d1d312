package scraper

import (
	"testing"
	"time"
)

func TestPreviousDay(t *testing.T) {
	now := time.Date(2025, 5, 28, 9, 30, 0, 0, time.UTC)
	w := PreviousDay(now)

	wantStart := time.Date(2025, 5, 27, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 5, 27, 23, 59, 59, 0, time.UTC)

	if !w.Start.Equal(wantStart) {
		t.Errorf("Expected start %v, got %v", wantStart, w.Start)
	}
	if !w.End.Equal(wantEnd) {
		t.Errorf("Expected end %v, got %v", wantEnd, w.End)
	}
}

func TestPreviousDayAcrossMonth(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 5, 0, 0, time.UTC)
	w := PreviousDay(now)

	if w.Start.Month() != time.February || w.Start.Day() != 28 {
		t.Errorf("Expected window in Feb 28, got %v", w.Start)
	}
}

func TestPreviousDayNonUTCInput(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	// 08:00 JST on May 28 is 23:00 UTC on May 27, so "yesterday" is May 26.
	now := time.Date(2025, 5, 28, 8, 0, 0, 0, jst)
	w := PreviousDay(now)

	if w.Start.Day() != 26 {
		t.Errorf("Expected UTC-normalized window starting May 26, got %v", w.Start)
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{
		Start: time.Date(2025, 5, 27, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 5, 27, 23, 59, 59, 0, time.UTC),
	}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"start boundary", w.Start, true},
		{"end boundary", w.End, true},
		{"middle", time.Date(2025, 5, 27, 12, 0, 0, 0, time.UTC), true},
		{"just before", w.Start.Add(-time.Second), false},
		{"just after", w.End.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, expected %v", tt.t, got, tt.want)
			}
		})
	}
}
